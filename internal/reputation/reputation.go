// Package reputation grades domains by a static popularity table. It does
// no I/O.
package reputation

import (
	"github.com/selimozcann/LinkGuard/internal/model"
	"github.com/selimozcann/LinkGuard/internal/util"
)

const (
	Top100Adjustment  = -20
	Top1000Adjustment = -10
)

var top100 = []string{
	"google.com", "youtube.com", "facebook.com", "instagram.com", "whatsapp.com",
	"wikipedia.org", "twitter.com", "x.com", "amazon.com", "apple.com",
	"microsoft.com", "linkedin.com", "netflix.com", "yahoo.com", "reddit.com",
	"bing.com", "live.com", "office.com", "tiktok.com", "github.com",
	"paypal.com", "zoom.us", "telegram.org", "cloudflare.com", "adobe.com",
	"dropbox.com", "spotify.com", "tokopedia.com", "shopee.co.id", "detik.com",
	"kompas.com", "gojek.com", "google.co.id", "gmail.com", "icloud.com",
}

var top1000 = []string{
	"stackoverflow.com", "mozilla.org", "medium.com", "wordpress.com", "blogspot.com",
	"bukalapak.com", "traveloka.com", "grab.com", "lazada.co.id", "blibli.com",
	"tribunnews.com", "liputan6.com", "cnnindonesia.com", "kumparan.com", "okezone.com",
	"bca.co.id", "klikbca.com", "bankmandiri.co.id", "bni.co.id", "bri.co.id",
	"gopay.co.id", "ovo.id", "dana.id", "bbc.co.uk", "nytimes.com",
	"cnn.com", "theguardian.com", "ebay.com", "aliexpress.com", "booking.com",
	"airbnb.com", "uber.com", "twitch.tv", "discord.com", "slack.com",
	"notion.so", "canva.com", "figma.com", "gitlab.com", "bitbucket.org",
	"imdb.com", "quora.com", "pinterest.com", "tumblr.com", "vimeo.com",
	"samsung.com", "huawei.com", "xiaomi.com", "oracle.com", "ibm.com",
	"salesforce.com", "shopify.com", "etsy.com", "walmart.com", "target.com",
}

// Service looks up the popularity tier of a domain.
type Service struct {
	tiers map[string]model.Tier
}

func New() *Service {
	s := &Service{tiers: make(map[string]model.Tier, len(top100)+len(top1000))}
	for _, d := range top1000 {
		s.tiers[d] = model.TierTop1000
	}
	for _, d := range top100 {
		s.tiers[d] = model.TierTop100
	}
	return s
}

// Lookup grades the registrable root of host.
func (s *Service) Lookup(host string) model.Reputation {
	root := util.RegistrableDomain(host)
	res := model.Reputation{Domain: root, Tier: model.TierUnknown}
	switch s.tiers[root] {
	case model.TierTop100:
		res.Tier, res.ScoreAdjustment, res.IsKnown = model.TierTop100, Top100Adjustment, true
	case model.TierTop1000:
		res.Tier, res.ScoreAdjustment, res.IsKnown = model.TierTop1000, Top1000Adjustment, true
	}
	return res
}
