package handlers

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message keys double as the English text.
const (
	msgSignInRequired = "Sign in to continue."
	msgQuotaReached   = "You have used all %d downloads for today. Upgrade your plan for more."
	msgToolNotAllowed = "The %s tool is not included in the %s plan."
	msgUnknownTool    = "Unknown tool %q."
	msgBadCredentials = "Email and password are required."
	msgUnavailable    = "Sign-in is temporarily unavailable. Please try again shortly."
)

func init() {
	id := map[string]string{
		msgSignInRequired: "Masuk untuk melanjutkan.",
		msgQuotaReached:   "Anda telah memakai semua %d unduhan hari ini. Tingkatkan paket untuk unduhan lebih banyak.",
		msgToolNotAllowed: "Alat %s tidak termasuk dalam paket %s.",
		msgUnknownTool:    "Alat %q tidak dikenal.",
		msgBadCredentials: "Email dan kata sandi wajib diisi.",
		msgUnavailable:    "Masuk sedang tidak tersedia. Silakan coba lagi sebentar lagi.",
	}
	for key, text := range id {
		if err := message.SetString(language.Indonesian, key, text); err != nil {
			panic(err)
		}
	}
}

func localize(locale, key string, args ...any) string {
	tag := language.English
	if locale == "id" {
		tag = language.Indonesian
	}
	return message.NewPrinter(tag).Sprintf(key, args...)
}
