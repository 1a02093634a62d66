package diplomacy

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	stdMapOnce sync.Once
	stdMapInst *DiplomacyMap
)

// StandardMap returns the standard 75-province map. It is built once;
// callers must not mutate it.
func StandardMap() *DiplomacyMap {
	stdMapOnce.Do(func() {
		m, err := parseMap(provinceTable, borderTable)
		if err != nil {
			panic(err)
		}
		stdMapInst = m
	})
	return stdMapInst
}

var kindNames = map[string]ProvinceType{"land": Land, "coast": Coastal, "sea": Sea}

// parseMap builds a map from a province table and a border table in the
// format of the standard map below.
func parseMap(provinces, borders string) (*DiplomacyMap, error) {
	m := &DiplomacyMap{
		Provinces:   make(map[string]*Province, ProvinceCount),
		Adjacencies: make(map[string][]Adjacency, 2*ProvinceCount),
	}
	for _, line := range tableLines(provinces) {
		f := strings.Fields(line)
		if len(f) < 4 {
			return nil, fmt.Errorf("map: bad province line %q", line)
		}
		ids := strings.Split(f[0], "/")
		kind, ok := kindNames[f[1]]
		if !ok {
			return nil, fmt.Errorf("map: %s: unknown kind %q", ids[0], f[1])
		}
		p := &Province{ID: ids[0], Name: strings.Join(f[3:], " "), Type: kind}
		for _, c := range ids[1:] {
			p.Coasts = append(p.Coasts, Coast(c))
		}
		if center := f[2]; center != "." {
			p.IsSupplyCenter = true
			if home := strings.TrimSuffix(center, "*"); home != "" {
				if p.HomePower, ok = charToPower[home[0]]; !ok || len(home) != 1 {
					return nil, fmt.Errorf("map: %s: bad home power %q", p.ID, center)
				}
			}
		}
		m.Provinces[p.ID] = p
	}

	for _, line := range tableLines(borders) {
		for _, tok := range strings.Fields(line) {
			i := strings.IndexAny(tok, "-~=")
			if i < 0 {
				return nil, fmt.Errorf("map: bad border %q", tok)
			}
			from, fromCoast := splitCoast(tok[:i])
			to, toCoast := splitCoast(tok[i+1:])
			if m.Provinces[from] == nil || m.Provinces[to] == nil {
				return nil, fmt.Errorf("map: border %q names an unknown province", tok)
			}
			army, fleet := tok[i] != '~', tok[i] != '-'
			m.addBorder(from, fromCoast, to, toCoast, army, fleet)
			m.addBorder(to, toCoast, from, fromCoast, army, fleet)
		}
	}

	keys := make([]string, 0, len(m.Provinces))
	for id := range m.Provinces {
		keys = append(keys, id)
	}
	if len(keys) != ProvinceCount {
		return nil, fmt.Errorf("map: %d provinces, want %d", len(keys), ProvinceCount)
	}
	sort.Strings(keys)
	m.homes = make(map[Power][]string, 7)
	for _, id := range keys {
		if p := m.Provinces[id]; p.IsSupplyCenter && p.HomePower != Neutral {
			m.homes[p.HomePower] = append(m.homes[p.HomePower], id)
		}
	}
	return m, nil
}

func (m *DiplomacyMap) addBorder(from string, fromCoast Coast, to string, toCoast Coast, army, fleet bool) {
	m.Adjacencies[from] = append(m.Adjacencies[from], Adjacency{
		From:      from,
		FromCoast: fromCoast,
		To:        to,
		ToCoast:   toCoast,
		ArmyOK:    army,
		FleetOK:   fleet,
	})
}

func splitCoast(s string) (string, Coast) {
	prov, coast, _ := strings.Cut(s, "/")
	return prov, Coast(coast)
}

// tableLines returns the non-blank lines of a table, without # comments.
func tableLines(table string) []string {
	var out []string
	for _, line := range strings.Split(table, "\n") {
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// id[/coasts] kind center name. The center column is "." for no supply
// center, "*" for a neutral one and a DFEN power letter plus "*" for a home
// center.
const provinceTable = `
boh        land  .   Bohemia
bud        land  A*  Budapest
bur        land  .   Burgundy
gal        land  .   Galicia
mos        land  R*  Moscow
mun        land  G*  Munich
par        land  F*  Paris
ruh        land  .   Ruhr
ser        land  *   Serbia
sil        land  .   Silesia
tyr        land  .   Tyrolia
ukr        land  .   Ukraine
vie        land  A*  Vienna
war        land  R*  Warsaw
alb        coast .   Albania
ank        coast T*  Ankara
apu        coast .   Apulia
arm        coast .   Armenia
bel        coast *   Belgium
ber        coast G*  Berlin
bre        coast F*  Brest
cly        coast .   Clyde
con        coast T*  Constantinople
den        coast *   Denmark
edi        coast E*  Edinburgh
fin        coast .   Finland
gas        coast .   Gascony
gre        coast *   Greece
hol        coast *   Holland
kie        coast G*  Kiel
lon        coast E*  London
lvn        coast .   Livonia
lvp        coast E*  Liverpool
mar        coast F*  Marseilles
naf        coast .   North Africa
nap        coast I*  Naples
nwy        coast *   Norway
pic        coast .   Picardy
pie        coast .   Piedmont
por        coast *   Portugal
pru        coast .   Prussia
rom        coast I*  Rome
rum        coast *   Rumania
sev        coast R*  Sevastopol
smy        coast T*  Smyrna
swe        coast *   Sweden
syr        coast .   Syria
tri        coast A*  Trieste
tun        coast *   Tunisia
tus        coast .   Tuscany
ven        coast I*  Venice
wal        coast .   Wales
yor        coast .   Yorkshire
bul/ec/sc  coast *   Bulgaria
spa/nc/sc  coast *   Spain
stp/nc/sc  coast R*  St. Petersburg
adr        sea   .   Adriatic Sea
aeg        sea   .   Aegean Sea
bal        sea   .   Baltic Sea
bar        sea   .   Barents Sea
bla        sea   .   Black Sea
bot        sea   .   Gulf of Bothnia
eas        sea   .   Eastern Mediterranean
eng        sea   .   English Channel
gol        sea   .   Gulf of Lyon
hel        sea   .   Heligoland Bight
ion        sea   .   Ionian Sea
iri        sea   .   Irish Sea
mao        sea   .   Mid-Atlantic Ocean
nao        sea   .   North Atlantic Ocean
nrg        sea   .   Norwegian Sea
nth        sea   .   North Sea
ska        sea   .   Skagerrak
tys        sea   .   Tyrrhenian Sea
wes        sea   .   Western Mediterranean
`

// Every border once. "a-b" is army only, "a~b" fleet only and "a=b" both.
// Coasts qualify fleet borders of split-coast provinces.
const borderTable = `
# seas
adr~ion aeg~eas aeg~ion bal~bot eng~iri eng~mao eng~nth gol~tys
gol~wes hel~nth ion~eas ion~tys iri~mao iri~nao mao~nao mao~wes
nao~nrg nth~nrg nth~ska nrg~bar tys~wes
# Adriatic Sea
adr~alb adr~apu adr~tri adr~ven
# Aegean Sea
aeg~bul/sc aeg~con aeg~gre aeg~smy
# Baltic Sea
bal~ber bal~den bal~kie bal~lvn bal~pru bal~swe
# Barents Sea
bar~nwy bar~stp/nc
# Black Sea
bla~ank bla~arm bla~bul/ec bla~con bla~rum bla~sev
# Gulf of Bothnia
bot~fin bot~lvn bot~stp/sc bot~swe
# Eastern Mediterranean
eas~smy eas~syr
# English Channel
eng~bel eng~bre eng~lon eng~pic eng~wal
# Gulf of Lyon
gol~mar gol~pie gol~spa/sc gol~tus
# Heligoland Bight
hel~den hel~hol hel~kie
# Ionian Sea
ion~alb ion~apu ion~gre ion~nap ion~tun
# Irish Sea
iri~lvp iri~wal
# Mid-Atlantic Ocean
mao~bre mao~gas mao~naf mao~por mao~spa/nc mao~spa/sc
# North Atlantic Ocean
nao~cly nao~lvp
# North Sea
nth~bel nth~den nth~edi nth~hol nth~lon nth~nwy nth~yor
# Norwegian Sea
nrg~cly nrg~edi nrg~nwy
# Skagerrak
ska~den ska~nwy ska~swe
# Tyrrhenian Sea
tys~nap tys~rom tys~tun tys~tus
# Western Mediterranean
wes~naf wes~spa/sc wes~tun
# inland
boh-gal boh-mun boh-sil boh-tyr boh-vie bud-gal bud-vie bur-mun
bur-par bur-ruh gal-sil gal-ukr gal-vie gal-war mos-ukr mos-war
mun-ruh mun-sil mun-tyr sil-war tyr-vie ukr-war
# inland to coast
bud-rum bud-ser bud-tri bur-bel bur-gas bur-mar bur-pic gal-rum
gas-mar mos-lvn mos-sev mos-stp mun-ber mun-kie par-bre par-gas
par-pic ruh-bel ruh-hol ruh-kie ser-alb ser-bul ser-gre ser-rum
ser-tri sil-ber sil-pru tyr-pie tyr-tri tyr-ven ukr-rum ukr-sev
vie-tri war-lvn war-pru
# coast to coast, shared land and sea border
alb=gre alb=tri ank=arm ank=con apu=nap apu=ven bel=hol bel=pic
ber=kie ber=pru bre=gas bre=pic cly=edi cly=lvp con=smy den=kie
den=swe edi=yor fin=swe hol=kie lon=wal lon=yor lvp=wal mar=pie
naf=tun nwy=swe pie=tus pru=lvn rom=nap rom=tus sev=arm sev=rum
smy=syr tri=ven
# coast to coast, facing different seas
ank-smy apu-rom arm-smy arm-syr edi-lvp fin-nwy lvp-yor pie-ven
rom-ven tus-ven wal-yor
# split coasts, fleets
con~bul/ec con~bul/sc gre~bul/sc rum~bul/ec gas~spa/nc mar~spa/sc por~spa/nc por~spa/sc
fin~stp/sc lvn~stp/sc nwy~stp/nc
# split coasts, armies
con-bul gre-bul rum-bul gas-spa mar-spa por-spa fin-stp lvn-stp
nwy-stp
`
