package trust

// Brand is a frequently impersonated organisation. Keywords are matched
// against candidate hosts; OfficialDomains are the registrable roots the
// brand actually operates.
type Brand struct {
	Name            string
	Keywords        []string
	OfficialDomains []string
}

// Brands is ordered: typosquat detection reports the first brand that
// matches, so earlier entries win ties.
var Brands = []Brand{
	{Name: "PayPal", Keywords: []string{"paypal"}, OfficialDomains: []string{"paypal.com", "paypal.me", "paypalobjects.com"}},
	{Name: "Google", Keywords: []string{"google"}, OfficialDomains: []string{"google.com", "google.co.id", "gmail.com", "youtube.com", "googleapis.com", "gstatic.com"}},
	{Name: "Facebook", Keywords: []string{"facebook"}, OfficialDomains: []string{"facebook.com", "fb.com", "fb.me", "messenger.com", "meta.com"}},
	{Name: "Apple", Keywords: []string{"apple", "icloud"}, OfficialDomains: []string{"apple.com", "icloud.com"}},
	{Name: "Microsoft", Keywords: []string{"microsoft", "outlook", "office365"}, OfficialDomains: []string{"microsoft.com", "live.com", "outlook.com", "office.com", "microsoftonline.com"}},
	{Name: "Amazon", Keywords: []string{"amazon"}, OfficialDomains: []string{"amazon.com", "amazon.co.uk", "amazon.co.jp", "aws.amazon.com"}},
	{Name: "Netflix", Keywords: []string{"netflix"}, OfficialDomains: []string{"netflix.com"}},
	{Name: "Instagram", Keywords: []string{"instagram"}, OfficialDomains: []string{"instagram.com"}},
	{Name: "WhatsApp", Keywords: []string{"whatsapp"}, OfficialDomains: []string{"whatsapp.com", "wa.me"}},
	{Name: "BCA", Keywords: []string{"klikbca", "bcamobile"}, OfficialDomains: []string{"bca.co.id", "klikbca.com"}},
	{Name: "Mandiri", Keywords: []string{"mandiri"}, OfficialDomains: []string{"bankmandiri.co.id"}},
	{Name: "BNI", Keywords: []string{"bnidirect"}, OfficialDomains: []string{"bni.co.id"}},
	{Name: "BRI", Keywords: []string{"brimo"}, OfficialDomains: []string{"bri.co.id"}},
	{Name: "Gojek", Keywords: []string{"gojek", "gopay"}, OfficialDomains: []string{"gojek.com", "gopay.co.id"}},
	{Name: "Tokopedia", Keywords: []string{"tokopedia"}, OfficialDomains: []string{"tokopedia.com"}},
	{Name: "Shopee", Keywords: []string{"shopee"}, OfficialDomains: []string{"shopee.co.id", "shopee.com"}},
}

// StaticDomains returns a copy of the static allow-list.
func StaticDomains() []string {
	return append([]string(nil), staticDomains...)
}

// staticDomains are well-known destinations trusted without any feedback,
// on top of the official brand domains.
var staticDomains = []string{
	"wikipedia.org", "github.com", "linkedin.com", "twitter.com", "x.com",
	"reddit.com", "stackoverflow.com", "mozilla.org", "cloudflare.com",
	"dropbox.com", "telegram.org", "zoom.us", "go.id", "kompas.com",
	"detik.com", "bukalapak.com", "traveloka.com", "grab.com",
}
