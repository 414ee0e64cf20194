package result

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmotionName_KnownIDs(t *testing.T) {
	assert.Equal(t, "neutral", EmotionName(0))
	assert.Equal(t, "happy", EmotionName(1))
	assert.Equal(t, "calm", EmotionName(EmotionCount-1))
}

func TestEmotionName_OutOfRange(t *testing.T) {
	assert.Equal(t, "unknown", EmotionName(-1))
	assert.Equal(t, "unknown", EmotionName(EmotionCount))
}

func TestAgeGroupMidpoint_KnownGroups(t *testing.T) {
	assert.Equal(t, 8, AgeGroupMidpoint(AgeChild))
	assert.Equal(t, 15, AgeGroupMidpoint(AgeTeen))
	assert.Equal(t, 35, AgeGroupMidpoint(AgeAdult))
	assert.Equal(t, 68, AgeGroupMidpoint(AgeElder))
}

func TestAgeGroupMidpoint_OutOfRangeFallsBackToAdult(t *testing.T) {
	assert.Equal(t, 35, AgeGroupMidpoint(AgeGroup(-1)))
	assert.Equal(t, 35, AgeGroupMidpoint(AgeGroup(99)))
}

func TestFeatureAll_CoversEveryNamedFeature(t *testing.T) {
	named := FeatureGender | FeatureAge | FeatureEmotion | FeatureAntiSpoof |
		FeatureQuality | FeatureVoiceFeatures | FeaturePleasantness |
		FeatureVoiceState | FeatureLanguage
	assert.Equal(t, named, FeatureAll)
}
