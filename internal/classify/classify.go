package classify

import (
	"context"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Label is a construction-compliance document kind.
type Label string

const (
	LabelTC2            Label = "tc2_social_security"
	LabelInsurance      Label = "insurance_policy"
	LabelPRLTraining    Label = "prl_training_certificate"
	LabelMedicalFitness Label = "medical_fitness"
	LabelContract       Label = "contract"
	LabelInvoice        Label = "invoice"
	LabelOther          Label = "other"
)

// Result is the outcome of classifying one document.
type Result struct {
	Label      Label
	Confidence int
}

// Rule scores a label by counting keyword hits in the extracted text and file name.
// Keywords match at the start of a word, so stems like "subcontrat" are allowed.
type Rule struct {
	Label    Label
	Keywords []string
}

// DefaultRules cover the documents subcontractors are asked for on site.
var DefaultRules = []Rule{
	{Label: LabelTC2, Keywords: []string{"tc2", "relacion nominal de trabajadores", "seguridad social", "tesoreria general", "cotizacion"}},
	{Label: LabelInsurance, Keywords: []string{"poliza", "aseguradora", "responsabilidad civil", "seguro", "prima"}},
	{Label: LabelPRLTraining, Keywords: []string{"prevencion de riesgos laborales", "prl", "formacion", "curso", "horas lectivas"}},
	{Label: LabelMedicalFitness, Keywords: []string{"reconocimiento medico", "vigilancia de la salud", "apto", "aptitud medica"}},
	{Label: LabelContract, Keywords: []string{"contrato", "subcontrat", "clausula", "las partes"}},
	{Label: LabelInvoice, Keywords: []string{"factura", "iva", "base imponible", "importe total"}},
}

// Classifier assigns a label and a 0-100 confidence to uploaded documents.
type Classifier struct {
	Rules []Rule
}

// New returns a Classifier using DefaultRules.
func New() *Classifier {
	return &Classifier{Rules: DefaultRules}
}

// Classify extracts text where the format allows and scores it. Documents whose
// text cannot be extracted are scored on the file name alone.
func (c *Classifier) Classify(ctx context.Context, data []byte, mimeType, fileName string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	text, err := ExtractText(ctx, data, mimeType, fileName)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		text = ""
	}

	base := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	base = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(base)
	return c.Score(base + "\n" + text), nil
}

// Score ranks rules against text. The winner needs at least one hit; confidence
// grows with hits and shrinks when the runner-up is close.
func (c *Classifier) Score(text string) Result {
	folded := fold(text)

	type scored struct {
		label Label
		hits  int
	}
	scores := make([]scored, 0, len(c.Rules))
	for _, rule := range c.Rules {
		hits := 0
		for _, kw := range rule.Keywords {
			hits += len(keywordPattern(kw).FindAllStringIndex(folded, -1))
		}
		scores = append(scores, scored{label: rule.Label, hits: hits})
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].hits > scores[j].hits })

	if len(scores) == 0 || scores[0].hits == 0 {
		return Result{Label: LabelOther, Confidence: 0}
	}

	best := scores[0].hits
	runnerUp := 0
	if len(scores) > 1 {
		runnerUp = scores[1].hits
	}
	confidence := 40 + 10*best - 15*runnerUp
	return Result{Label: scores[0].label, Confidence: clamp(confidence, 10, 99)}
}

func keywordPattern(kw string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(fold(kw)))
}

func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
