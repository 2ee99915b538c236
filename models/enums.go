package models

// Platform is the normalized ad-platform name. Values outside the known set
// are allowed; vendor reports occasionally carry niche networks verbatim.
type Platform string

const (
	PlatformGoogle  Platform = "google"
	PlatformTikTok  Platform = "tiktok"
	PlatformSnap    Platform = "snap"
	PlatformMeta    Platform = "meta"
	PlatformTwitter Platform = "twitter"
)

func (p Platform) IsKnown() bool {
	switch p {
	case PlatformGoogle, PlatformTikTok, PlatformSnap, PlatformMeta, PlatformTwitter:
		return true
	}
	return false
}

func (p Platform) String() string {
	return string(p)
}
