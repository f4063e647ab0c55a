// Package i18n holds the static translation tables and the user's language
// selection, persisted under its own storage key.
package i18n

import (
	"context"
	"errors"
	"sync"

	"spotit/store"

	"github.com/apex/log"
)

const (
	KeyLanguage = "userLanguage"

	DefaultLanguage = "en"
)

// Languages available in the app, in menu order.
var Languages = []struct {
	Code string
	Name string
}{
	{Code: "en", Name: "English"},
	{Code: "hi", Name: "हिन्दी"},
}

var translations = map[string]map[string]string{
	"en": {
		"appName":      "SpotIt",
		"home":         "Home",
		"issues":       "My Issues",
		"rewards":      "Rewards",
		"profile":      "Profile",
		"login":        "Login",
		"logout":       "Logout",
		"register":     "Register",
		"submit":       "Submit",
		"retake":       "Retake",
		"capture":      "Spot an Issue",
		"points":       "points",
		"impactPoints": "Impact Points",
		"rewardsTitle": "Redeem Rewards",
		"statusLine":   "Status",
		"noIssues":     "No issues reported yet",
	},
	"hi": {
		"appName":      "स्पॉटइट",
		"home":         "होम",
		"issues":       "मेरी शिकायतें",
		"rewards":      "पुरस्कार",
		"profile":      "प्रोफ़ाइल",
		"login":        "लॉग इन",
		"logout":       "लॉग आउट",
		"register":     "पंजीकरण",
		"submit":       "जमा करें",
		"retake":       "फिर से लें",
		"capture":      "समस्या दर्ज करें",
		"points":       "अंक",
		"impactPoints": "प्रभाव अंक",
		"rewardsTitle": "पुरस्कार पाएं",
		"statusLine":   "स्थिति",
		"noIssues":     "अभी तक कोई शिकायत दर्ज नहीं",
	},
}

// Translator resolves UI strings for the selected language, falling back to
// English and finally to the key itself.
type Translator struct {
	store store.Store

	mu   sync.Mutex
	lang string
}

func NewTranslator(kv store.Store) *Translator {
	return &Translator{store: kv, lang: DefaultLanguage}
}

// Load restores the persisted language selection. Errors are logged and
// leave the default in place.
func (tr *Translator) Load(ctx context.Context) {
	v, err := tr.store.Get(ctx, KeyLanguage)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Errorf("i18n load: %v", err)
		}
		return
	}
	if _, ok := translations[v]; ok {
		tr.mu.Lock()
		tr.lang = v
		tr.mu.Unlock()
	}
}

func (tr *Translator) Language() string {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.lang
}

// SetLanguage switches the language and persists the choice. Unknown codes
// are ignored. A persistence failure keeps the in-memory switch.
func (tr *Translator) SetLanguage(ctx context.Context, code string) {
	if _, ok := translations[code]; !ok {
		return
	}
	tr.mu.Lock()
	tr.lang = code
	tr.mu.Unlock()
	if err := tr.store.Set(ctx, KeyLanguage, code); err != nil {
		log.Errorf("i18n save: %v", err)
	}
}

// T resolves key in the selected language, then English, then returns the
// key unchanged.
func (tr *Translator) T(key string) string {
	tr.mu.Lock()
	lang := tr.lang
	tr.mu.Unlock()

	if v, ok := translations[lang][key]; ok {
		return v
	}
	if v, ok := translations[DefaultLanguage][key]; ok {
		return v
	}
	return key
}
