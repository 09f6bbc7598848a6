// internal/api/handler/sync.go
package handler

import (
	"bytes"
	"image/png"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/skip2/go-qrcode"

	"novapay-wallet/internal/service"
	"novapay-wallet/internal/synccode"
)

// qrSize is the edge length of the exported QR image in pixels.
const qrSize = 320

// SyncHandler moves an account between devices with sync codes.
type SyncHandler struct {
	responder
	service service.WalletService
	now     func() time.Time
}

// NewSyncHandler creates a new SyncHandler. A nil clock means time.Now.
func NewSyncHandler(svc service.WalletService, logger *slog.Logger, clock func() time.Time) *SyncHandler {
	if clock == nil {
		clock = time.Now
	}
	return &SyncHandler{responder: newResponder(logger), service: svc, now: clock}
}

// ImportRequest represents the request body for a sync code import.
type ImportRequest struct {
	Code string `json:"code" validate:"required"`
}

// export stamps the code with the start of the current window, so repeated
// requests within a window return the same code.
func (h *SyncHandler) export(r *http.Request) (*service.SyncExport, error) {
	return h.service.ExportSyncCode(r.Context(), synccode.WindowStart(h.now()))
}

// Export returns the active account's sync code.
// GET /sync/export
func (h *SyncHandler) Export(w http.ResponseWriter, r *http.Request) {
	code, err := h.export(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, code)
}

// ExportQR renders the sync code as a PNG QR image.
// GET /sync/export/qr
func (h *SyncHandler) ExportQR(w http.ResponseWriter, r *http.Request) {
	code, err := h.export(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	qr, err := qrcode.New(code.Code, qrcode.Low)
	if err != nil {
		// Large ledgers or avatars overflow the densest QR version.
		h.logger.Warn("Sync code does not fit in a QR image", "length", len(code.Code), "error", err)
		h.respondWithJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: "Sync code is too large for a QR image; use the text code instead"})
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(qrSize)); err != nil {
		h.respondWithError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Sync-Code-Expires-At", code.ExpiresAt.Format(time.RFC3339))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// Import restores an account from a sync code and signs it in.
// POST /sync/import
func (h *SyncHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.service.ImportSyncCode(r.Context(), req.Code)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, user)
}
