package i18n

import (
	"context"
	"testing"

	"spotit/store"
)

func TestTranslatorFallbackChain(t *testing.T) {
	tr := NewTranslator(store.NewMemStore())

	testCases := []struct {
		name     string
		lang     string
		key      string
		expected string
	}{
		{name: "English key", lang: "en", key: "rewards", expected: "Rewards"},
		{name: "Hindi key", lang: "hi", key: "rewards", expected: "पुरस्कार"},
		{name: "Unknown key returns key", lang: "hi", key: "noSuchKey", expected: "noSuchKey"},
	}

	ctx := context.Background()
	for _, testCase := range testCases {
		tr.SetLanguage(ctx, testCase.lang)
		if got := tr.T(testCase.key); got != testCase.expected {
			t.Errorf("%s, T: expected %q, got %q", testCase.name, testCase.expected, got)
		}
	}
}

func TestSetLanguageIgnoresUnknownCode(t *testing.T) {
	tr := NewTranslator(store.NewMemStore())
	tr.SetLanguage(context.Background(), "xx")
	if tr.Language() != DefaultLanguage {
		t.Errorf("SetLanguage: expected unknown code ignored, got %q", tr.Language())
	}
}

func TestLanguagePersistsAcrossLoad(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemStore()

	first := NewTranslator(kv)
	first.SetLanguage(ctx, "hi")

	second := NewTranslator(kv)
	if second.Language() != DefaultLanguage {
		t.Fatalf("fresh translator: expected default before Load, got %q", second.Language())
	}
	second.Load(ctx)
	if second.Language() != "hi" {
		t.Errorf("Load: expected restored language hi, got %q", second.Language())
	}
}
