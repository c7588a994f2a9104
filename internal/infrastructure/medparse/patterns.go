package medparse

import "regexp"

type labPattern struct {
	re   *regexp.Regexp
	test string
}

// Lab rows come in two layouts: a loose tabular form matched first, and
// a set of narrow per-test patterns that pick up anything the table scan
// missed. All matching runs on lowercased text.
var tablePattern = regexp.MustCompile(`(?P<test>hemoglobin|hba1c|creatinine|total cholesterol|hdl cholesterol|ldl cholesterol|triglycerides|platelet count|vitamin b-12|vitamin d|c-peptide|tsh|iron|calcium|sodium|chloride|esr)\s*(?:.*?)\s*(?P<val>\d+(?:\.\d+)?)\s*(?P<unit>[a-zA-Z/μ%³°]+)`)

var specificLabPatterns = []labPattern{
	{regexp.MustCompile(`hemoglobin\s+(\d+\.\d+)\s+(g/dl)`), "hemoglobin"},
	{regexp.MustCompile(`hba1c\s+(\d+\.\d+)\s*(%)`), "hba1c"},
	{regexp.MustCompile(`total cholesterol\s+(\d+)\s*(mg/dl)`), "total cholesterol"},
	{regexp.MustCompile(`hdl cholesterol\s+(\d+)\s*(mg/dl)`), "hdl cholesterol"},
	{regexp.MustCompile(`ldl cholesterol\s+(\d+\.\d+)\s*(mg/dl)`), "ldl cholesterol"},
	{regexp.MustCompile(`triglycerides\s+(\d+)\s*(mg/dl)`), "triglycerides"},
	{regexp.MustCompile(`vitamin d.*total\s+(\d+\.\d+)\s*(ng/ml)`), "vitamin d"},
	{regexp.MustCompile(`vitamin b-12\s+(\d+)\s*(pg/ml)`), "vitamin b12"},
	{regexp.MustCompile(`c-peptide\s+(\d+\.\d+)\s*(ng/ml)`), "c-peptide"},
	{regexp.MustCompile(`creatinine.*serum\s+(\d+\.\d+)\s*(mg/dl)`), "creatinine"},
	{regexp.MustCompile(`tsh.*ultrasensitive\s+(\d+\.\d+)\s*(μiu/ml)`), "tsh"},
}

type radiologyPattern struct {
	trigger *regexp.Regexp
	extract *regexp.Regexp
}

var radiologyPatterns = []radiologyPattern{
	{
		regexp.MustCompile(`osteochondral\s+changes`),
		regexp.MustCompile(`(?P<finding>osteochondral\s+changes)\s+(?P<descriptor>noted|seen|present)?\s*(?P<location>in\s+[\w\s]+)?`),
	},
	{
		regexp.MustCompile(`chondromalacia`),
		regexp.MustCompile(`(?P<finding>chondromalacia\s+\w+)\s*\(?\s*(?P<grade>grade\s+\w+)?\)?`),
	},
	{
		regexp.MustCompile(`joint\s+effusion`),
		regexp.MustCompile(`(?P<finding>joint\s+effusion)\s+with\s+(?P<descriptor>[\w\s]+)?`),
	},
	{
		regexp.MustCompile(`subchondral\s+cystic\s+changes`),
		regexp.MustCompile(`(?P<finding>subchondral\s+cystic\s+changes)`),
	},
	{
		regexp.MustCompile(`joint\s+space\s+is\s+normal`),
		regexp.MustCompile(`(?P<finding>joint\s+space)\s+is\s+(?P<descriptor>normal)`),
	},
	{
		regexp.MustCompile(`menisci\s+is\s+normal`),
		regexp.MustCompile(`(?P<finding>menisci)\s+is\s+(?P<descriptor>normal\s+and\s+intact)`),
	},
	{
		regexp.MustCompile(`cruciate\s+ligaments\s+are\s+normal`),
		regexp.MustCompile(`(?P<finding>cruciate\s+ligaments)\s+are\s+(?P<descriptor>normal)`),
	},
	{
		regexp.MustCompile(`collateral\s+ligaments\s+are\s+normal`),
		regexp.MustCompile(`(?P<finding>collateral\s+ligaments)\s+are\s+(?P<descriptor>normal)`),
	},
	{
		regexp.MustCompile(`no\s+evidence\s+of`),
		regexp.MustCompile(`(?P<evidence>no\s+evidence\s+of)\s+(?P<finding>[\w\s]+)`),
	},
	{
		regexp.MustCompile(`normal\s+and\s+intact`),
		regexp.MustCompile(`(?P<finding>[\w\s]+)\s+(?P<descriptor>normal\s+and\s+intact)`),
	},
	{
		regexp.MustCompile(`changes\s+noted`),
		regexp.MustCompile(`(?P<finding>[\w\s]+\s+changes)\s+(?P<descriptor>noted)`),
	},
	{
		regexp.MustCompile(`osteophytes?`),
		regexp.MustCompile(`(?P<finding>osteophytes?)\s+(?P<descriptor>seen|present|noted|identified)?`),
	},
	{
		regexp.MustCompile(`lordosis`),
		regexp.MustCompile(`(?P<descriptor>normal|reduced|increased|loss\s+of)?\s*(?P<finding>lordosis)`),
	},
	{
		regexp.MustCompile(`disc\s+(?:herniation|bulge|protrusion)`),
		regexp.MustCompile(`(?P<finding>disc\s+(?:herniation|bulge|protrusion))\s*(?P<location>at\s+\w+)?`),
	},
	{
		regexp.MustCompile(`[\w\s]+\s+is\s+normal`),
		regexp.MustCompile(`(?P<finding>[\w\s]+)\s+is\s+(?P<descriptor>normal)`),
	},
	{
		regexp.MustCompile(`[\w\s]+\s+are\s+normal`),
		regexp.MustCompile(`(?P<finding>[\w\s]+)\s+are\s+(?P<descriptor>normal)`),
	},
}

// observationsSection matches against the original text, not the
// lowercased copy: the \n[A-Z] terminator needs the next section's
// uppercase header to stop the window.
var (
	observationsSection = regexp.MustCompile(`(?s)(?i:observations?):(.*?)(?:\n\n|\n[A-Z]|$)`)
	sentenceSplit       = regexp.MustCompile(`[.!?]+`)
	whitespaceRun       = regexp.MustCompile(`\s+`)
)

var radiologyKeywords = []string{
	"mri", "ct", "x-ray", "ultrasound", "scan", "imaging",
	"vertebral", "spine", "disc", "osteophytes", "lordosis",
	"protocol", "sequences", "sagittal", "axial", "coronal",
}

var labKeywords = []string{
	"hemoglobin", "cholesterol", "glucose", "creatinine", "bilirubin",
	"platelet", "wbc", "rbc", "lab", "laboratory", "blood work",
}

var observationKeywords = []string{"normal", "abnormal", "no evidence", "seen", "present"}
