package model

// SocialPlatform represents a social media platform type.
type SocialPlatform string

// Social media platform constants.
const (
	// SocialPlatformFacebook represents Facebook.
	SocialPlatformFacebook SocialPlatform = "facebook"
	// SocialPlatformInstagram represents Instagram.
	SocialPlatformInstagram SocialPlatform = "instagram"
	// SocialPlatformTwitter represents Twitter/X.
	SocialPlatformTwitter SocialPlatform = "twitter"
	// SocialPlatformLinkedIn represents LinkedIn.
	SocialPlatformLinkedIn SocialPlatform = "linkedin"
	// SocialPlatformYouTube represents YouTube.
	SocialPlatformYouTube SocialPlatform = "youtube"
	// SocialPlatformTikTok represents TikTok.
	SocialPlatformTikTok SocialPlatform = "tiktok"
)

// SocialPlatforms lists every supported platform in extraction order.
var SocialPlatforms = []SocialPlatform{
	SocialPlatformFacebook,
	SocialPlatformInstagram,
	SocialPlatformTwitter,
	SocialPlatformLinkedIn,
	SocialPlatformYouTube,
	SocialPlatformTikTok,
}

// String returns the string representation of the SocialPlatform.
func (p SocialPlatform) String() string {
	return string(p)
}

// IsValid returns true if this is a known platform.
func (p SocialPlatform) IsValid() bool {
	switch p {
	case SocialPlatformFacebook, SocialPlatformInstagram, SocialPlatformTwitter,
		SocialPlatformLinkedIn, SocialPlatformYouTube, SocialPlatformTikTok:
		return true
	default:
		return false
	}
}

// ParseSocialPlatform converts a string to SocialPlatform.
// The second return value is false for unknown platforms.
func ParseSocialPlatform(s string) (SocialPlatform, bool) {
	switch s {
	case "facebook", "fb":
		return SocialPlatformFacebook, true
	case "instagram":
		return SocialPlatformInstagram, true
	case "twitter", "x":
		return SocialPlatformTwitter, true
	case "linkedin":
		return SocialPlatformLinkedIn, true
	case "youtube":
		return SocialPlatformYouTube, true
	case "tiktok":
		return SocialPlatformTikTok, true
	default:
		return "", false
	}
}
