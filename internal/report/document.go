package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/schoolscan/internal/catalog"
	"github.com/nao1215/schoolscan/internal/matcher"
	"github.com/nao1215/schoolscan/internal/model"
)

const (
	// ReportTitle is the heading of every report.
	ReportTitle = "iPad Implementation Report"

	// relevantAreasPerRecommendation caps the quoted areas per recommendation.
	relevantAreasPerRecommendation = 2

	largeSchoolPupils = 500
	smallSchoolPupils = 200
	highFSMPercent    = 35
	notableFSMPercent = 20
	fundingFSMPercent = 30
)

// Document is the content of one implementation report.
type Document struct {
	Title           string            `json:"title"`
	Institution     model.Institution `json:"institution"`
	ReportURL       string            `json:"report_url,omitempty"`
	GeneratedAt     time.Time         `json:"generated_at"`
	Summary         []string          `json:"summary"`
	AreaGroups      []AreaGroup       `json:"area_groups"`
	Recommendations []Recommendation  `json:"recommendations"`
	Standards       []StandardSection `json:"standards"`
	Considerations  []Consideration   `json:"considerations"`
	Conclusion      []string          `json:"conclusion"`
}

// AreaGroup is the improvement areas of one origin.
type AreaGroup struct {
	Origin model.Origin `json:"origin"`
	Label  string       `json:"label"`
	Areas  []string     `json:"areas"`
}

// Recommendation is one matched solution, personalized for the institution.
type Recommendation struct {
	Key            string   `json:"key"`
	Title          string   `json:"title"`
	RelevanceScore int      `json:"relevance_score"`
	RelevantAreas  []string `json:"relevant_areas,omitempty"`
	Bullets        []string `json:"bullets"`
	Standards      []string `json:"standards"`
}

// StandardSection explains how the recommendations support one standard.
type StandardSection struct {
	Key         string   `json:"key"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Benefits    []string `json:"benefits"`
}

// Consideration is a practical note about rolling out the recommendations.
type Consideration struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// BuildDocument assembles the report for an assessment.
// It returns ErrNotRenderable when the assessment was refused or has no
// matches. A nil catalog means the embedded default catalog.
func BuildDocument(a *model.Assessment, cat *catalog.Catalog) (*Document, error) {
	if err := checkRenderable(a); err != nil {
		return nil, err
	}
	if cat == nil {
		var err error
		if cat, err = catalog.Default(); err != nil {
			return nil, err
		}
	}

	inst := a.Institution
	primary := isPhase(inst, "primary")
	areas := a.AreaTexts()

	doc := &Document{
		Title:       ReportTitle,
		Institution: inst,
		ReportURL:   a.ReportURL,
		GeneratedAt: a.DateGenerated,
		AreaGroups:  areaGroups(a),
	}

	doc.Summary = []string{
		fmt.Sprintf("This report outlines how implementing 1:1 iPads at %s can address the specific challenges "+
			"and priorities identified in the %s while meeting the Department for Education's technology "+
			"standards for digital leadership, accessibility, and devices.", inst.Name, areaSummary(a)),
		fmt.Sprintf("The recommendations are tailored to the specific context of %s as %s%s, with a focus on "+
			"how iPad technology can support the school's unique improvement journey.",
			inst.Name, schoolDescription(sizeContext(inst.Pupils), inst.Phase), fsmContext(inst.FSM)),
	}

	m := matcher.New(cat)
	for _, match := range a.Matches {
		rec := Recommendation{
			Key:            match.Key,
			Title:          match.Title,
			RelevanceScore: match.RelevanceScore,
			RelevantAreas:  m.RelevantAreas(match.Key, areas, relevantAreasPerRecommendation),
			Bullets:        personalize(match.SolutionBullets, primary),
			Standards:      make([]string, 0, len(match.StandardTags)),
		}
		for _, tag := range match.StandardTags {
			if std, ok := cat.Standard(tag); ok {
				rec.Standards = append(rec.Standards, std.Title)
			}
		}
		doc.Recommendations = append(doc.Recommendations, rec)
	}

	doc.Standards = make([]StandardSection, 0)
	for _, tag := range model.StandardTagsOf(a.Matches) {
		std, ok := cat.Standard(tag)
		if !ok {
			continue
		}
		doc.Standards = append(doc.Standards, StandardSection{
			Key:         std.Key,
			Title:       std.Title,
			Description: std.Description,
			Benefits:    personalize(std.Benefits, primary),
		})
	}

	doc.Considerations = considerations(inst)
	doc.Conclusion = conclusion(inst, areas)

	return doc, nil
}

func checkRenderable(a *model.Assessment) error {
	if a == nil {
		return fmt.Errorf("%w: nil assessment", ErrNotRenderable)
	}
	if a.Refused() {
		return fmt.Errorf("%w: %w", ErrNotRenderable, model.ErrNoImprovementAreas)
	}
	if len(a.Matches) == 0 {
		return fmt.Errorf("%w: no matched solutions", ErrNotRenderable)
	}
	return nil
}

func areaGroups(a *model.Assessment) []AreaGroup {
	groups := make([]AreaGroup, 0, len(model.Origins))
	for _, origin := range model.Origins {
		texts := a.AreasByOrigin(origin)
		if len(texts) == 0 {
			continue
		}
		groups = append(groups, AreaGroup{Origin: origin, Label: origin.Label(), Areas: texts})
	}
	return groups
}

// areaSummary names the sources the improvement areas were taken from.
func areaSummary(a *model.Assessment) string {
	parts := make([]string, 0, len(model.Origins))
	if a.HasOrigin(model.OriginInspectionReport) {
		parts = append(parts, "Ofsted improvement areas")
	}
	if a.HasOrigin(model.OriginPublishedStrategy) {
		parts = append(parts, "strategic priorities from the school website")
	}
	if a.HasOrigin(model.OriginUserSupplied) {
		parts = append(parts, "additional school priorities")
	}
	return joinList(parts)
}

func sizeContext(pupils int) string {
	switch {
	case pupils > largeSchoolPupils:
		return "large"
	case pupils < smallSchoolPupils:
		return "small"
	default:
		return ""
	}
}

func fsmContext(fsm float64) string {
	switch {
	case fsm > highFSMPercent:
		return fmt.Sprintf(" with a high proportion of pupils eligible for Free School Meals (%s%%)", formatPercent(fsm))
	case fsm > notableFSMPercent:
		return fmt.Sprintf(" with %s%% of pupils eligible for Free School Meals", formatPercent(fsm))
	default:
		return ""
	}
}

// schoolDescription returns e.g. "a large primary school".
func schoolDescription(size, phase string) string {
	words := make([]string, 0, 3)
	if size != "" {
		words = append(words, size)
	}
	if phase = strings.ToLower(strings.TrimSpace(phase)); phase != "" {
		words = append(words, phase)
	}
	words = append(words, "school")
	return article(words[0]) + " " + strings.Join(words, " ")
}

func article(word string) string {
	if word != "" && strings.ContainsRune("aeiou", rune(word[0])) {
		return "an"
	}
	return "a"
}

func considerations(inst model.Institution) []Consideration {
	phase := strings.ToLower(inst.Phase)

	var training string
	if inst.Pupils > largeSchoolPupils {
		training = fmt.Sprintf("For a school of %s's size (%d pupils), a phased approach to staff training is "+
			"recommended. Begin with a core team of digital champions who can then support colleagues. The "+
			"Apple Teacher professional learning program provides structured support for educators at all "+
			"levels of technical confidence.", inst.Name, inst.Pupils)
	} else {
		training = fmt.Sprintf("For a smaller school like %s (%d pupils), whole-staff training sessions can be "+
			"effective. The Apple Teacher professional learning program provides structured support for "+
			"educators at all levels of technical confidence, with resources specifically designed for %s "+
			"settings.", inst.Name, inst.Pupils, phase)
	}

	var infrastructure string
	if inst.FSM > fundingFSMPercent {
		infrastructure = fmt.Sprintf("Given %s's FSM percentage of %s%%, you may be eligible for additional "+
			"funding or support for infrastructure improvements. A technical audit should be conducted to "+
			"ensure the Wi-Fi network can support simultaneous connections from all devices. Consider a phased "+
			"approach to implementation to manage costs effectively.", inst.Name, formatPercent(inst.FSM))
	} else {
		infrastructure = fmt.Sprintf("Robust Wi-Fi coverage throughout %s is essential for effective iPad "+
			"implementation. A technical audit should be conducted to ensure the network can support "+
			"simultaneous connections from all devices, particularly in areas where multiple classes may be "+
			"using devices simultaneously.", inst.Name)
	}

	var deployment string
	switch {
	case isPhase(inst, "primary"):
		deployment = fmt.Sprintf("For %s as a %s school, consider a year-group by year-group rollout starting "+
			"with upper KS2 classes, followed by lower KS2 and then KS1. This allows for evaluation and "+
			"refinement of implementation strategies before full-school deployment. Shared iPad deployments "+
			"can be effective for younger year groups.", inst.Name, inst.Phase)
	case isPhase(inst, "secondary"):
		deployment = fmt.Sprintf("For %s as a %s school, consider a subject-based or year-group rollout "+
			"starting with departments that align with your improvement priorities. This allows for evaluation "+
			"and refinement of implementation strategies before full-school deployment. A BYOD (Bring Your Own "+
			"Device) policy could be considered for older students.", inst.Name, inst.Phase)
	default:
		deployment = fmt.Sprintf("Consider a phased rollout at %s starting with specific year groups or "+
			"departments that align with your improvement priorities. This allows for evaluation and "+
			"refinement of implementation strategies before full-school deployment.", inst.Name)
	}

	return []Consideration{
		{Title: "Professional Development", Text: training},
		{Title: "Technical Infrastructure", Text: infrastructure},
		{Title: "Deployment Strategy", Text: deployment},
	}
}

// themeRules map a conclusion theme to the area terms that trigger it.
var themeRules = []struct {
	theme string
	terms []string
}{
	{"curriculum", []string{"curriculum", "subject"}},
	{"literacy", []string{"reading", "literacy"}},
	{"inclusion", []string{"send", "special", "need"}},
	{"staff development", []string{"staff", "teacher", "cpd"}},
}

// priorityThemes returns the themes present in the areas, in the order
// they first appear.
func priorityThemes(areas []string) []string {
	themes := make([]string, 0, len(themeRules))
	seen := make(map[string]bool, len(themeRules))
	for _, area := range areas {
		lower := strings.ToLower(area)
		for _, rule := range themeRules {
			if seen[rule.theme] {
				continue
			}
			for _, term := range rule.terms {
				if strings.Contains(lower, term) {
					seen[rule.theme] = true
					themes = append(themes, rule.theme)
					break
				}
			}
		}
	}
	return themes
}

func conclusion(inst model.Institution, areas []string) []string {
	var priorities string
	if themes := priorityThemes(areas); len(themes) > 0 {
		priorities = " particularly in the areas of " + joinList(themes)
	}

	return []string{
		fmt.Sprintf("Implementing 1:1 iPads at %s would directly address the specific improvement areas "+
			"identified in your school's priorities%s. The recommendations in this report are tailored to "+
			"your context as %s with %d pupils.",
			inst.Name, priorities, schoolDescription("", inst.Phase), inst.Pupils),
		"The versatility, reliability, and built-in accessibility features of iPads make them an ideal " +
			"platform to support teaching and learning across the curriculum, while meeting the DfE's " +
			"technology standards for leadership, accessibility, and devices.",
		fmt.Sprintf("By implementing these recommendations, %s can enhance teaching and learning experiences, "+
			"support staff in delivering the curriculum effectively, and provide pupils with the digital "+
			"skills they need for future success.", inst.Name),
	}
}

func isPhase(inst model.Institution, phase string) bool {
	return strings.Contains(strings.ToLower(inst.Phase), phase)
}

// personalize says "pupils" instead of "students" for primary schools.
func personalize(lines []string, primary bool) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		if primary {
			line = strings.ReplaceAll(line, "students", "pupils")
		}
		out[i] = line
	}
	return out
}

// joinList joins items as "a", "a and b" or "a, b and c".
func joinList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}

func formatPercent(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
