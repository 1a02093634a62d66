package diplomacy

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// expectedInitialDFEN is the canonical DFEN for Spring 1901 Movement.
const expectedInitialDFEN = "1901sm/" +
	"Aabud,Aftri,Aavie," +
	"Efedi,Eflon,Ealvp," +
	"Ffbre,Famar,Fapar," +
	"Gaber,Gfkie,Gamun," +
	"Ifnap,Iarom,Iaven," +
	"Ramos,Rfsev,Rfstp.sc,Rawar," +
	"Tfank,Tacon,Tasmy/" +
	"Abud,Atri,Avie,Eedi,Elon,Elvp,Fbre,Fmar,Fpar," +
	"Gber,Gkie,Gmun,Inap,Irom,Iven," +
	"Rmos,Rsev,Rstp,Rwar," +
	"Tank,Tcon,Tsmy," +
	"Nbel,Nbul,Nden,Ngre,Nhol,Nnwy,Npor,Nrum,Nser,Nspa,Nswe,Ntun/-"

// boardOrder ignores the order of units and dislodged units.
var boardOrder = cmp.Options{
	cmpopts.SortSlices(func(a, b Unit) bool { return unitLess(a, b) }),
	cmpopts.SortSlices(func(a, b DislodgedUnit) bool { return unitLess(a.Unit, b.Unit) }),
	cmpopts.EquateEmpty(),
}

func TestDFEN_InitialState(t *testing.T) {
	gs := NewInitialState()
	if got := EncodeDFEN(gs); got != expectedInitialDFEN {
		t.Fatalf("EncodeDFEN(initial) mismatch\ngot:  %s\nwant: %s", got, expectedInitialDFEN)
	}
	decoded, err := DecodeDFEN(expectedInitialDFEN)
	if err != nil {
		t.Fatalf("DecodeDFEN: %v", err)
	}
	if diff := cmp.Diff(gs, decoded, boardOrder); diff != "" {
		t.Errorf("decoded initial state mismatch (-want +got):\n%s", diff)
	}
}

func TestDFEN_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		gs   *GameState
		want string // exact encoding, when checked
	}{
		{
			name: "retreat phase",
			gs: &GameState{
				Year: 1902, Season: Fall, Phase: PhaseRetreat,
				Units: []Unit{
					{Army, Austria, "vie", NoCoast},
					{Fleet, Turkey, "bla", NoCoast},
					{Army, Turkey, "bul", NoCoast},
				},
				SupplyCenters: map[string]Power{"vie": Austria, "ser": Austria, "sev": Russia, "bul": Turkey},
				Dislodged: []DislodgedUnit{
					{Unit: Unit{Fleet, Russia, "sev", NoCoast}, DislodgedFrom: "sev", AttackerFrom: "bla"},
					{Unit: Unit{Army, Austria, "ser", NoCoast}, DislodgedFrom: "ser", AttackerFrom: "bul"},
				},
			},
			want: "1902fr/Aavie,Tfbla,Tabul/Aser,Avie,Rsev,Tbul/Aaser<bul,Rfsev<bla",
		},
		{
			name: "build phase",
			gs: &GameState{
				Year: 1901, Season: Fall, Phase: PhaseBuild,
				Units: []Unit{
					{Army, Austria, "tri", NoCoast},
					{Fleet, Austria, "gre", NoCoast},
				},
				SupplyCenters: map[string]Power{"gre": Austria, "tri": Austria, "bel": Neutral},
			},
			want: "1901fb/Afgre,Aatri/Agre,Atri,Nbel/-",
		},
		{
			name: "split coasts",
			gs: &GameState{
				Year: 1902, Season: Spring, Phase: PhaseMovement,
				Units: []Unit{
					{Fleet, Russia, "stp", NorthCoast},
					{Fleet, Turkey, "bul", EastCoast},
					{Fleet, France, "spa", SouthCoast},
				},
				SupplyCenters: map[string]Power{"stp": Russia, "bul": Turkey, "spa": France},
			},
			want: "1902sm/Ffspa.sc,Rfstp.nc,Tfbul.ec/Fspa,Rstp,Tbul/-",
		},
		{
			name: "empty board",
			gs:   &GameState{Year: 1920, Season: Spring, Phase: PhaseMovement, SupplyCenters: map[string]Power{}},
			want: "1920sm/-/-/-",
		},
		{
			name: "mid game",
			gs: &GameState{
				Year: 1903, Season: Fall, Phase: PhaseMovement,
				Units: []Unit{
					{Army, Austria, "bud", NoCoast}, {Army, Austria, "rum", NoCoast}, {Fleet, Austria, "gre", NoCoast},
					{Fleet, England, "nth", NoCoast}, {Fleet, England, "nwy", NoCoast}, {Army, England, "yor", NoCoast},
					{Fleet, France, "mao", NoCoast}, {Army, France, "bur", NoCoast}, {Fleet, France, "por", NoCoast},
					{Army, Germany, "den", NoCoast}, {Army, Germany, "hol", NoCoast}, {Fleet, Germany, "ska", NoCoast},
					{Fleet, Italy, "tys", NoCoast}, {Army, Italy, "ven", NoCoast},
					{Fleet, Russia, "sev", NoCoast}, {Army, Russia, "war", NoCoast},
					{Fleet, Turkey, "ank", NoCoast}, {Army, Turkey, "bul", NoCoast}, {Army, Turkey, "con", NoCoast},
				},
				SupplyCenters: map[string]Power{
					"bud": Austria, "gre": Austria, "rum": Austria, "tri": Austria, "vie": Austria,
					"edi": England, "lon": England, "lvp": England, "nwy": England,
					"bre": France, "mar": France, "par": France, "spa": France,
					"ber": Germany, "den": Germany, "hol": Germany, "kie": Germany, "mun": Germany,
					"nap": Italy, "rom": Italy, "ven": Italy,
					"mos": Russia, "sev": Russia, "war": Russia,
					"ank": Turkey, "bul": Turkey, "con": Turkey, "smy": Turkey,
					"bel": Neutral, "por": Neutral, "ser": Neutral, "stp": Neutral, "swe": Neutral, "tun": Neutral,
				},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := EncodeDFEN(tt.gs)
			if tt.want != "" && encoded != tt.want {
				t.Errorf("EncodeDFEN\ngot:  %s\nwant: %s", encoded, tt.want)
			}
			decoded, err := DecodeDFEN(encoded)
			if err != nil {
				t.Fatalf("DecodeDFEN(%q): %v", encoded, err)
			}
			if diff := cmp.Diff(tt.gs, decoded, boardOrder); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
			if again := EncodeDFEN(decoded); again != encoded {
				t.Errorf("re-encoding changed the string:\nfirst:  %s\nsecond: %s", encoded, again)
			}
		})
	}
}

func TestEncodeDFEN_DoesNotReorderInput(t *testing.T) {
	gs := NewInitialState()
	first := gs.Units[0]
	_ = EncodeDFEN(gs)
	if gs.Units[0] != first {
		t.Error("EncodeDFEN sorted the caller's units")
	}
}

func TestDecodeDFEN_ProtocolExample(t *testing.T) {
	dfen := "1902fr/" +
		"Aabud,Aavie,Aftri,Aagre," +
		"Efnth,Efnwy,Eabel,Eflon," +
		"Ffmao,Fabur,Fapar,Ffbre," +
		"Gaden,Gamun,Gfkie,Gaber," +
		"Ifnap,Iaven,Iarom," +
		"Ramos,Rawar,Ragal,Rfstp.sc," +
		"Tabul,Tfbla,Tacon,Tasmy,Tfank/" +
		"Abud,Agre,Atri,Avie,Ebel,Eedi,Elon,Elvp,Fbre,Fmar,Fpar," +
		"Gber,Gden,Gkie,Gmun,Inap,Irom,Iven,Rmos,Rsev,Rstp,Rwar," +
		"Tank,Tbul,Tcon,Tsmy," +
		"Nhol,Nnwy,Npor,Nrum,Nser,Nspa,Nswe,Ntun/" +
		"Aaser<bul,Rfsev<bla"

	gs, err := DecodeDFEN(dfen)
	if err != nil {
		t.Fatalf("DecodeDFEN: %v", err)
	}
	if gs.PhaseName() != "1902 fall retreat" || len(gs.Units) != 28 || len(gs.SupplyCenters) != 34 {
		t.Errorf("got %s with %d units and %d centers", gs.PhaseName(), len(gs.Units), len(gs.SupplyCenters))
	}
	want := []DislodgedUnit{
		{Unit: Unit{Army, Austria, "ser", NoCoast}, DislodgedFrom: "ser", AttackerFrom: "bul"},
		{Unit: Unit{Fleet, Russia, "sev", NoCoast}, DislodgedFrom: "sev", AttackerFrom: "bla"},
	}
	if diff := cmp.Diff(want, gs.Dislodged); diff != "" {
		t.Errorf("dislodged mismatch (-want +got):\n%s", diff)
	}
	if u := gs.UnitAt("stp"); u == nil || u.Coast != SouthCoast {
		t.Errorf("stp unit = %+v", u)
	}
}

func TestDecodeDFEN_Errors(t *testing.T) {
	tests := []struct {
		name string
		dfen string
		want string
	}{
		{"too few sections", "1901sm/units/scs", "expected 4 sections"},
		{"short phase info", "sm/-/-/-", "too short"},
		{"invalid year", "ABCsm/-/-/-", "invalid year"},
		{"invalid season", "1901xm/-/-/-", "invalid season"},
		{"invalid phase", "1901sx/-/-/-", "invalid phase"},
		{"invalid power in unit", "1901sm/Xavie/-/-", "invalid power"},
		{"neutral unit", "1901sm/Navie/-/-", "invalid power"},
		{"invalid unit type", "1901sm/Axvie/-/-", "invalid unit type"},
		{"short unit", "1901sm/Aav/-/-", "too short"},
		{"long province", "1901sm/Aavien/-/-", "invalid province"},
		{"invalid coast", "1901sm/Rfstp.wc/-/-", "invalid coast"},
		{"bad sc", "1901sm/-/Avienna/-", "bad supply center"},
		{"bad sc power", "1901sm/-/Xvie/-", "invalid power"},
		{"dislodged without attacker", "1901sr/-/-/Aaser", "missing '<'"},
		{"dislodged bad attacker", "1901sr/-/-/Aaser<bu", "invalid attacker"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeDFEN(tt.dfen)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("DecodeDFEN(%q) error = %v, want containing %q", tt.dfen, err, tt.want)
			}
		})
	}
}

func TestDFEN_CanonicalOrder(t *testing.T) {
	gs := NewInitialState()
	gs.SupplyCenters["bel"] = England
	encoded := EncodeDFEN(gs)
	units, centers := strings.Split(encoded, "/")[1], strings.Split(encoded, "/")[2]

	var letters []byte
	for _, e := range strings.Split(units, ",") {
		if n := len(letters); n == 0 || letters[n-1] != e[0] {
			letters = append(letters, e[0])
		}
	}
	if string(letters) != "AEFGIRT" {
		t.Errorf("unit power order = %s", letters)
	}
	if !strings.Contains(centers, "Elvp,Fbre") || !strings.HasPrefix(centers[strings.Index(centers, "E"):], "Ebel,Eedi") {
		t.Errorf("centers not sorted by power then province: %s", centers)
	}
	if strings.Contains(centers, "Nbel") {
		t.Errorf("bel should no longer be neutral: %s", centers)
	}
}

func FuzzDFEN_RoundTrip(f *testing.F) {
	f.Add(expectedInitialDFEN)
	f.Add("1902fr/Aabud,Tfbla/Abud,Atri,Avie,Rsev,Nbel/Rfsev<bla")
	f.Add("1901fb/Aatri,Aarum,Afgre/Abud,Atri,Avie,Arum,Agre,Nbel/-")
	f.Add("1920sm/-/-/-")

	f.Fuzz(func(t *testing.T, dfen string) {
		gs, err := DecodeDFEN(dfen)
		if err != nil {
			return
		}
		encoded := EncodeDFEN(gs)
		gs2, err := DecodeDFEN(encoded)
		if err != nil {
			t.Fatalf("second decode failed: %v (encoded=%q)", err, encoded)
		}
		if again := EncodeDFEN(gs2); again != encoded {
			t.Fatalf("round-trip not stable:\nfirst:  %s\nsecond: %s", encoded, again)
		}
	})
}
