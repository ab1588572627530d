package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/okian/witarcade/internal/domain/round"
	qrcode "github.com/skip2/go-qrcode"
)

const qrSize = 320

// ChallengeHandler renders shareable challenge links as QR codes.
type ChallengeHandler struct {
	publicURL string
}

// NewChallengeHandler creates a challenge handler. An empty publicURL
// derives the link from the request.
func NewChallengeHandler(publicURL string) *ChallengeHandler {
	return &ChallengeHandler{publicURL: strings.TrimRight(publicURL, "/")}
}

// HandleQR handles GET /api/challenge/:code/qr.
func (h *ChallengeHandler) HandleQR(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	const op = "api.challenge_qr"

	seed, err := round.ParseChallenge(ps.ByName("code"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_challenge", WrapKind(op, ErrInvalidChallenge, err))
		return
	}

	link := h.base(r) + "/?challenge=" + url.QueryEscape(round.EncodeChallenge(seed))
	png, err := qrcode.Encode(link, qrcode.Medium, qrSize)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "qr_failed", WrapKind(op, ErrQR, err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(png)
}

func (h *ChallengeHandler) base(r *http.Request) string {
	if h.publicURL != "" {
		return h.publicURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}
