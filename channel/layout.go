package channel

import "strings"

// Rule recognizes quantitation type names for one role. Name is compared
// exactly. Pattern, when set, must match the whole name.
type Rule struct {
	Role    Role   `json:"role"`
	Name    string `json:"name,omitempty"`
	Pattern string `json:"pattern,omitempty"`
}

// Layout is the naming convention of one scanner vendor or data source.
type Layout struct {
	Name  string
	Rules []Rule
}

// Layouts holds the conventions known out of the box. Channel A is the green
// (Cy3, 532nm) channel and channel B the red (Cy5, 635nm) one.
var Layouts = map[string]Layout{
	"Stanford": {
		Name: "Stanford",
		Rules: []Rule{
			{Role: BackgroundA, Pattern: `CH1B_(MEDIAN|MEAN)`},
			{Role: BackgroundB, Pattern: `CH2B_(MEDIAN|MEAN)`},
			{Role: SignalA, Pattern: `CH1(I)?_(MEDIAN|MEAN)`},
			{Role: SignalB, Pattern: `CH2(I)?_(MEDIAN|MEAN)`},
			{Role: SignalA, Pattern: `(?i)ch1_smtm`},
			{Role: SignalB, Pattern: `(?i)ch2_smtm`},
		},
	},
	"GenePix": {
		Name: "GenePix",
		Rules: []Rule{
			{Role: BackgroundA, Pattern: `(?i)b532[\s_.](mean|median)`},
			{Role: BackgroundB, Pattern: `(?i)b635[\s_.](mean|median)`},
			{Role: SignalA, Pattern: `(?i)f532[\s_.](mean|median)`},
			{Role: SignalB, Pattern: `(?i)f635[\s_.](mean|median)`},
		},
	},
	"Agilent": {
		Name: "Agilent",
		Rules: []Rule{
			{Role: BackgroundA, Pattern: `gBG(Median|Mean)Signal`},
			{Role: BackgroundB, Pattern: `rBG(Median|Mean)Signal`},
			{Role: SignalA, Pattern: `g(Processed|Median|Mean)Signal`},
			{Role: SignalB, Pattern: `r(Processed|Median|Mean)Signal`},
			{Role: SignalA, Name: `"log2(532), gN"`},
			{Role: SignalB, Name: `"log2(635), gN"`},
		},
	},
	"Quantarray": {
		Name: "Quantarray",
		Rules: []Rule{
			{Role: BackgroundA, Pattern: `ch1[ .]Background`},
			{Role: BackgroundB, Pattern: `ch2[ .]Background`},
			{Role: SignalA, Pattern: `ch1[ .]Intensity`},
			{Role: SignalB, Pattern: `ch2[ .]Intensity`},
		},
	},
	"Incyte": {
		Name: "Incyte",
		Rules: []Rule{
			{Role: SignalA, Name: "RAW_DATA"},
			{Role: SignalB, Name: "RAW_CONTROL"},
		},
	},
	"Caltech": {
		Name: "Caltech",
		Rules: []Rule{
			{Role: BackgroundA, Pattern: `Ch1Bkg(Median|Mean)`},
			{Role: BackgroundB, Pattern: `Ch2Bkg(Median|Mean)`},
			{Role: SignalA, Name: "Ch1SigMedian"},
			{Role: SignalB, Name: "Ch2SigMedian"},
		},
	},
	// Aliases seen in GEO platform submissions.
	"GPL": {
		Name: "GPL",
		Rules: []Rule{
			{Role: BackgroundA, Name: "BACKGROUND_CHANNEL 1MEDIAN"},
			{Role: BackgroundB, Name: "BACKGROUND_CHANNEL 2MEDIAN"},
			{Role: BackgroundA, Pattern: `CH1_BKD(_MEAN|_ Median)?`},
			{Role: BackgroundB, Pattern: `CH2_BKD(_MEAN|_ Median)?`},
			{Role: BackgroundA, Name: "G_BG_MEAN"},
			{Role: BackgroundB, Name: "R_BG_MEAN"},
			{Role: SignalA, Name: "SIGNAL_CHANNEL 1MEDIAN"},
			{Role: SignalB, Name: "SIGNAL_CHANNEL 2MEDIAN"},
			{Role: SignalA, Pattern: `G_MEAN|CH1_SIG_MEAN|CH1_ Median|CH1Mean|CH1_SIGNAL`},
			{Role: SignalB, Pattern: `R_MEAN|CH2_SIG_MEAN|CH2_ Median|CH2Mean|CH2_SIGNAL`},
			{Role: SignalA, Pattern: `(?i)\w{2}\d{3}_CY3`},
			{Role: SignalB, Pattern: `(?i)\w{2}\d{3}_CY5`},
			{Role: SignalA, Pattern: `(?i)NORM(.*)CH1`},
			{Role: SignalB, Pattern: `(?i)NORM(.*)CH2`},
		},
	},
}

// LayoutNames lists the keys of Layouts, comma separated.
func LayoutNames() string {
	b := strings.Builder{}
	i := 0
	for m := range Layouts {
		if i != 0 {
			b.WriteString(", ")
		}
		b.WriteString(m)
		i++
	}

	return b.String()
}
