package result

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLanguageByIndex_KnownEntries(t *testing.T) {
	code, name := LanguageByIndex(0)
	assert.Equal(t, "en", code)
	assert.Equal(t, "English", name)

	code, name = LanguageByIndex(1)
	assert.Equal(t, "zh", code)
	assert.Equal(t, "Chinese", name)
}

func TestLanguageByIndex_OutOfRange(t *testing.T) {
	code, name := LanguageByIndex(999)
	assert.Equal(t, "lang999", code)
	assert.Equal(t, "Unknown", name)
}

func TestLanguageName_CoversEveryForwardIndex(t *testing.T) {
	// The reverse lookup must resolve every code the forward table can
	// produce, not just the abbreviated subset the original reverse map
	// covered.
	for i := 0; i < len(languageTable); i++ {
		code, name := LanguageByIndex(i)
		assert.Equal(t, name, LanguageName(code), "index %d (%s)", i, code)
	}
}

func TestLanguageName_UnknownCodeReturnsCodeItself(t *testing.T) {
	assert.Equal(t, "xx", LanguageName("xx"))
}

func TestRequiredFlags_ExpandsDerivedPrerequisites(t *testing.T) {
	got := RequiredFlags(FeaturePleasantness)
	assert.NotZero(t, got&FeatureQuality)
	assert.NotZero(t, got&FeatureVoiceFeatures)
	assert.NotZero(t, got&FeaturePleasantness)
}

func TestRequiredFlags_LeavesUnrelatedFlagsAlone(t *testing.T) {
	got := RequiredFlags(FeatureGender)
	assert.Equal(t, FeatureGender, got)
}
