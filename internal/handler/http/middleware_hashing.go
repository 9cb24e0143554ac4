package http

import (
	"bytes"
	"io"
	"net/http"

	"github.com/MKhiriev/repcue-sync/internal/logger"
)

const headerHash = "HashSHA256"

// checkHash verifies the HMAC-SHA256 signature that clients send in the
// HashSHA256 header over the raw request body. It is a no-op when the server
// runs without a hash key or the body is empty; the handlers own the
// empty-body answer.
func (h *Handler) checkHash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.hasher.Enabled() || r.Body == nil {
			next.ServeHTTP(w, r)
			return
		}

		log := logger.FromRequest(r)

		body, err := io.ReadAll(r.Body)
		if err != nil {
			log.Err(err).Str("func", "*Handler.checkHash").Msg("failed to read request body")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		// restore request body
		r.Body = io.NopCloser(bytes.NewReader(body))

		if len(bytes.TrimSpace(body)) == 0 {
			next.ServeHTTP(w, r)
			return
		}

		signature := r.Header.Get(headerHash)
		if !h.hasher.Verify(body, signature) {
			log.Error().Str("func", "*Handler.checkHash").
				Str("hash from request", signature).
				Msg("hashes are not equal")
			h.writeError(w, ErrIntegrityCheckFailed)
			return
		}

		next.ServeHTTP(w, r)
	})
}
