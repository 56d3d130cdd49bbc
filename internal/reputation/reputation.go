package reputation

import (
	"bufio"
	"net/netip"
	"os"
	"strings"

	"clickguard/internal/geoip"
)

// Score weights for structural signals. These are fixed policy, not
// tunables: changing them shifts the block boundary for all traffic.
const (
	vpnScore        = 25
	dataCenterScore = 20
	suspiciousScore = 15
	patternScore    = 10
)

// Factor strings surfaced in fraud reasons and on the dashboard.
const (
	FactorVPN        = "Known VPN range"
	FactorDataCenter = "Data center IP"
	FactorSuspicious = "Suspicious IP pattern"
	FactorSequential = "Sequential IP pattern"
)

// Assessment is the structural risk view of a single IP address,
// independent of any behavior history.
type Assessment struct {
	IsVPN   bool
	IsProxy bool
	Country string
	City    string
	Score   int
	Factors []string
}

// Lists holds the reputation prefix sets. Both are pluggable; the
// defaults are a small sample of well known ranges and a real
// deployment should load a maintained feed via LoadPrefixes.
type Lists struct {
	VPNPrefixes     []netip.Prefix
	HostingPrefixes []netip.Prefix
}

// Analyzer produces structural assessments. It is a pure function over
// its configured lists and the offline geo database; no network calls.
type Analyzer struct {
	lists Lists
	geo   *geoip.Service
}

func NewAnalyzer(lists Lists, geo *geoip.Service) *Analyzer {
	return &Analyzer{lists: lists, geo: geo}
}

// Analyze scores a raw IP address. Unparseable input yields an empty
// assessment rather than an error; the caller fails open anyway.
func (a *Analyzer) Analyze(ipAddress string) Assessment {
	var out Assessment

	loc := a.geo.Lookup(ipAddress)
	out.Country = loc.Country
	out.City = loc.City

	addr, err := netip.ParseAddr(ipAddress)
	if err != nil {
		return out
	}

	if matchesAny(addr, a.lists.VPNPrefixes) {
		out.IsVPN = true
		out.Score += vpnScore
		out.Factors = append(out.Factors, FactorVPN)
	}

	if matchesAny(addr, a.lists.HostingPrefixes) {
		out.IsProxy = true
		out.Score += dataCenterScore
		out.Factors = append(out.Factors, FactorDataCenter)
	}

	// Private or loopback addresses showing up as a public client IP
	// mean header spoofing or a broken proxy chain.
	if addr.IsPrivate() || addr.IsLoopback() {
		out.Score += suspiciousScore
		out.Factors = append(out.Factors, FactorSuspicious)
	}

	if isSequential(addr) {
		out.Score += patternScore
		out.Factors = append(out.Factors, FactorSequential)
	}

	return out
}

func matchesAny(addr netip.Addr, prefixes []netip.Prefix) bool {
	for _, p := range prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// isSequential flags network/broadcast-style last octets (1, 255),
// which show up in scripted sweeps far more often than in human
// browser traffic.
func isSequential(addr netip.Addr) bool {
	if !addr.Is4() {
		return false
	}
	last := addr.As4()[3]
	return last == 1 || last == 255
}

// DefaultLists returns the built-in sample prefix sets.
func DefaultLists() Lists {
	return Lists{
		VPNPrefixes: mustPrefixes(
			"185.159.156.0/22", // ProtonVPN
			"193.138.218.0/24", // Mullvad
			"146.70.0.0/16",    // M247, used by several commercial VPNs
			"185.220.100.0/22", // Tor exit range
		),
		HostingPrefixes: mustPrefixes(
			"8.8.8.0/24",     // Google public DNS
			"34.64.0.0/10",   // Google Cloud
			"54.144.0.0/12",  // AWS
			"20.33.0.0/16",   // Azure
			"159.65.0.0/16",  // DigitalOcean
			"167.99.0.0/16",  // DigitalOcean
			"95.216.0.0/15",  // Hetzner
			"51.38.0.0/16",   // OVH
			"45.32.0.0/16",   // Vultr
			"172.105.0.0/16", // Linode
		),
	}
}

func mustPrefixes(cidrs ...string) []netip.Prefix {
	out := make([]netip.Prefix, 0, len(cidrs))
	for _, c := range cidrs {
		out = append(out, netip.MustParsePrefix(c))
	}
	return out
}

// LoadPrefixes reads a prefix list from a file: one CIDR per line,
// blank lines and #-comments ignored. Bare IPs are treated as /32.
func LoadPrefixes(filePath string) ([]netip.Prefix, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var prefixes []netip.Prefix
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.Contains(line, "/") {
			line += "/32"
		}
		p, err := netip.ParsePrefix(line)
		if err != nil {
			continue
		}
		prefixes = append(prefixes, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return prefixes, nil
}
