package models

import "strings"

// Listings is the catalogue of well-known HOSE/HNX tickers used for symbol
// detection by name and for search. It is not an exhaustive exchange list.
var Listings = []Listing{
	{Symbol: "VCB", Name: "Vietcombank", Aliases: []string{"vietcombank"}},
	{Symbol: "VIC", Name: "Vingroup", Aliases: []string{"vingroup"}},
	{Symbol: "VHM", Name: "Vinhomes", Aliases: []string{"vinhomes"}},
	{Symbol: "VRE", Name: "Vincom Retail", Aliases: []string{"vincom retail", "vincom"}},
	{Symbol: "HPG", Name: "Hòa Phát Group", Aliases: []string{"hòa phát", "hoa phat", "hoaphat"}},
	{Symbol: "TCB", Name: "Techcombank", Aliases: []string{"techcombank"}},
	{Symbol: "ACB", Name: "Ngân hàng Á Châu", Aliases: []string{"á châu", "asia commercial bank"}},
	{Symbol: "MBB", Name: "MB Bank", Aliases: []string{"mbbank", "mb bank", "ngân hàng quân đội"}},
	{Symbol: "STB", Name: "Sacombank", Aliases: []string{"sacombank"}},
	{Symbol: "FPT", Name: "FPT Corporation", Aliases: []string{"fpt"}},
	{Symbol: "VNM", Name: "Vinamilk", Aliases: []string{"vinamilk"}},
	{Symbol: "MSN", Name: "Masan Group", Aliases: []string{"masan"}},
	{Symbol: "MWG", Name: "Thế Giới Di Động", Aliases: []string{"thế giới di động", "mobile world"}},
	{Symbol: "GAS", Name: "PV Gas", Aliases: []string{"pv gas", "pvgas"}},
	{Symbol: "BID", Name: "BIDV", Aliases: []string{"bidv"}},
	{Symbol: "CTG", Name: "VietinBank", Aliases: []string{"vietinbank"}},
	{Symbol: "VPB", Name: "VPBank", Aliases: []string{"vpbank"}},
	{Symbol: "HDB", Name: "HDBank", Aliases: []string{"hdbank"}},
	{Symbol: "TPB", Name: "TPBank", Aliases: []string{"tpbank"}},
	{Symbol: "VIB", Name: "Ngân hàng Quốc tế VIB", Aliases: []string{"vib"}},
	{Symbol: "SHB", Name: "Ngân hàng SHB", Aliases: []string{"shb"}},
	{Symbol: "SSB", Name: "SeABank", Aliases: []string{"seabank"}},
	{Symbol: "LPB", Name: "LPBank", Aliases: []string{"lpbank", "lienvietpostbank"}},
	{Symbol: "SSI", Name: "Chứng khoán SSI", Aliases: []string{"ssi"}},
	{Symbol: "PLX", Name: "Petrolimex", Aliases: []string{"petrolimex"}},
	{Symbol: "SAB", Name: "Sabeco", Aliases: []string{"sabeco"}},
	{Symbol: "GVR", Name: "Tập đoàn Cao su Việt Nam", Aliases: []string{"cao su việt nam"}},
	{Symbol: "POW", Name: "PV Power", Aliases: []string{"pv power"}},
	{Symbol: "VJC", Name: "Vietjet Air", Aliases: []string{"vietjet"}},
	{Symbol: "BCM", Name: "Becamex IDC", Aliases: []string{"becamex"}},
}

var listingIndex = func() map[string]Listing {
	m := make(map[string]Listing, len(Listings))
	for _, l := range Listings {
		m[l.Symbol] = l
	}
	return m
}()

// LookupListing returns the catalogue entry for a normalised symbol.
func LookupListing(symbol string) (Listing, bool) {
	l, ok := listingIndex[strings.ToUpper(symbol)]
	return l, ok
}
