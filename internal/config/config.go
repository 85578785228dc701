package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ArtifactName is the file name the download UI expects.
const ArtifactName = "All_Members_IDs.pdf"

// Config captures process level settings for the server and the CLI.
type Config struct {
	Port    string
	LogMode string

	// CORSOrigins may call the API from a browser; empty means SiteBase only.
	CORSOrigins []string

	// APIBase resolves relative profile image URLs and the directory path.
	APIBase string
	// SiteBase resolves the relative logo path.
	SiteBase      string
	DirectoryPath string
	LogoURL       string

	Profile      string
	ProfilesFile string
	BatchLimit   int

	FetchTimeout       time.Duration
	FetchMaxBytes      int64
	FetchLogoPerMember bool
	BarcodeTextAsQR    bool

	Org Org
}

// Org is the branding printed on the back of every card.
type Org struct {
	Name    string
	Address string
	Phones  []string
	Website string
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Port:    String("PORT", "8080"),
		LogMode: String("LOG_MODE", "dev"),

		CORSOrigins: List("CORS_ORIGINS", nil),

		APIBase:       String("API_BASE", "https://robi-api.robifitness.com"),
		SiteBase:      String("SITE_BASE", "http://localhost:3000"),
		DirectoryPath: String("DIRECTORY_PATH", "/api/download"),
		LogoURL:       String("LOGO_URL", "/Images/logo.png"),

		Profile:      String("CARD_PROFILE", "standard"),
		ProfilesFile: String("CARD_PROFILES_FILE", ""),
		BatchLimit:   Int("BATCH_LIMIT", 0),

		FetchTimeout:       Duration("FETCH_TIMEOUT_MS", 5*time.Second),
		FetchMaxBytes:      int64(Int("FETCH_MAX_BYTES", 10<<20)),
		FetchLogoPerMember: Bool("FETCH_LOGO_PER_MEMBER", false),
		BarcodeTextAsQR:    Bool("BARCODE_TEXT_AS_QR", false),

		Org: Org{
			Name:    String("ORG_NAME", "Robi Fitness Center"),
			Address: String("ORG_ADDRESS", "St.Gabriel, In front of Evening Star, D.L Building"),
			Phones:  List("ORG_PHONES", []string{"+251913212323", "+251943313282"}),
			Website: String("ORG_WEBSITE", "www.robifitness.com"),
		},
	}
}

func String(name, def string) string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	return v
}

func Int(name string, def int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func Bool(name string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// Duration reads a millisecond count.
func Duration(name string, def time.Duration) time.Duration {
	ms := Int(name, -1)
	if ms <= 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

// List reads a comma separated value, dropping empty items.
func List(name string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
