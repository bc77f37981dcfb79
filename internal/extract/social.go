package extract

import (
	"regexp"
	"strings"

	"github.com/nao1215/contactscan/internal/model"
)

// socialPattern finds profile links for one platform.
type socialPattern struct {
	platform model.SocialPlatform
	pattern  *regexp.Regexp
}

// socialPatterns is checked in model.SocialPlatforms order.
// LinkedIn and YouTube paths may contain '/' (company pages, channels);
// TikTok profiles always start with '@'.
var socialPatterns = []socialPattern{
	{
		platform: model.SocialPlatformFacebook,
		pattern:  regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?facebook\.com/[\w.-]+`),
	},
	{
		platform: model.SocialPlatformInstagram,
		pattern:  regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?instagram\.com/[\w.-]+`),
	},
	{
		platform: model.SocialPlatformTwitter,
		pattern:  regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?twitter\.com/[\w.-]+`),
	},
	{
		platform: model.SocialPlatformLinkedIn,
		pattern:  regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?linkedin\.com/[\w./-]+`),
	},
	{
		platform: model.SocialPlatformYouTube,
		pattern:  regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?youtube\.com/[\w./-]+`),
	},
	{
		platform: model.SocialPlatformTikTok,
		pattern:  regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?tiktok\.com/@[\w.-]+`),
	},
}

// FindSocialLinks returns the first profile link per platform found in text.
// Links without a scheme are returned with "https://" prepended.
// Platforms with no match are absent from the map.
func FindSocialLinks(text string) map[model.SocialPlatform]string {
	links := make(map[model.SocialPlatform]string)
	for _, sp := range socialPatterns {
		match := sp.pattern.FindString(text)
		if match == "" {
			continue
		}
		links[sp.platform] = normalizeSocialURL(match)
	}
	return links
}

func normalizeSocialURL(match string) string {
	if strings.HasPrefix(strings.ToLower(match), "http") {
		return match
	}
	return "https://" + match
}
