package web

import (
	"encoding/base64"
	"net/http"
	"strings"

	vm "github.com/ericfisherdev/fleetcert/internal/adapter/driving/web/viewmodel"
)

const flashCookieName = "fleetcert_flash"

// setFlash stores a one-shot message shown by the next rendered page.
func setFlash(w http.ResponseWriter, tone, message string, secure bool) {
	value := base64.RawURLEncoding.EncodeToString([]byte(tone + "\n" + message))
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash returns the pending flash message, if any, and clears it.
func popFlash(w http.ResponseWriter, r *http.Request, secure bool) *vm.FlashViewModel {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})

	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	tone, message, ok := strings.Cut(string(raw), "\n")
	if !ok || (tone != "success" && tone != "danger") {
		return nil
	}
	return &vm.FlashViewModel{Tone: tone, Message: message}
}
