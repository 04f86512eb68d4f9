// File path: internal/ingest/sample.go
package ingest

import (
	"fmt"
	"math"
	"strings"

	"github.com/causewaylabs/causeway/internal/corpus"
)

const sampleSize = 60

// NTEE category labels applied to sample and fetched records.
var nteeDescriptions = map[string]string{
	"A20": "Arts, Culture & Humanities - Visual Arts",
	"A23": "Arts, Culture & Humanities - Cultural/Ethnic Awareness",
	"A25": "Arts, Culture & Humanities - Arts Education",
	"B21": "Education - Elementary & Secondary Schools",
	"B24": "Education - Higher Education",
	"B25": "Education - Graduate/Professional Schools",
	"B28": "Education - Libraries",
	"E20": "Health - Hospitals",
	"E21": "Health - Community Health Centers",
	"E22": "Health - Rehabilitation Services",
	"P20": "Human Services - Housing & Shelter",
	"P21": "Human Services - Youth Development",
	"P22": "Human Services - Family Services",
	"P23": "Human Services - Human Service Organizations",
	"P24": "Human Services - Emergency Aid",
	"P30": "Human Services - Children & Youth Services",
	"X20": "Religion Related - Christian",
	"X21": "Religion Related - Jewish",
	"X22": "Religion Related - Islamic",
	"C30": "Environment - Land Resources Conservation",
	"C32": "Environment - Water Resources Conservation",
	"D20": "Animal-Related - Animal Protection",
	"T20": "Public/Society Benefit - Nonprofit Management",
	"T30": "Public/Society Benefit - Military/Veterans",
	"N20": "Recreation & Sports - Camps",
	"N21": "Recreation & Sports - Community Recreation",
}

// NTEEDescription resolves a code to its label. Unknown codes label as
// "Other"; an empty code stays empty.
func NTEEDescription(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	if desc, ok := nteeDescriptions[code]; ok {
		return desc
	}
	return "Other"
}

type sampleOrg struct {
	name       string
	ntee       string
	mission    string
	programs   string
	activities string
	revenue    float64
	expenses   float64
	assets     float64
}

var sampleAnchors = []sampleOrg{
	{
		name:       "Houston Food Bank",
		ntee:       "P24",
		mission:    "To lead the fight against hunger in Southeast Texas by providing food access, advocacy, education and disaster relief.",
		programs:   "Food distribution, mobile food pantries, BackPack Buddy Program, disaster relief, nutrition education",
		activities: "Operates largest food bank in Texas serving 18 counties. Partners with 1,500+ food pantries, soup kitchens, and social service agencies.",
		revenue:    425_000_000, expenses: 398_000_000, assets: 95_000_000,
	},
	{
		name:       "Houston Museum of Natural Science",
		ntee:       "A20",
		mission:    "To provide educational opportunities that enhance understanding and appreciation of natural science and astronomy.",
		programs:   "Permanent exhibitions, planetarium shows, IMAX theater, educational programs, research",
		activities: "Museum operations, educational outreach, scientific research, community engagement programs",
		revenue:    45_000_000, expenses: 42_000_000, assets: 280_000_000,
	},
	{
		name:       "Houston Symphony Society",
		ntee:       "A20",
		mission:    "To inspire and engage the diverse communities of Houston through exceptional musical performances and educational experiences.",
		programs:   "Classical concerts, pops concerts, community engagement, music education, youth programs",
		activities: "Over 170 concerts annually, educational outreach to 150,000 students, community partnerships",
		revenue:    35_000_000, expenses: 33_000_000, assets: 65_000_000,
	},
	{
		name:       "Houston Independent School District Foundation",
		ntee:       "B21",
		mission:    "To mobilize business and community support for Houston ISD students and schools.",
		programs:   "College scholarships, teacher grants, school improvement projects, student support services",
		activities: "Fundraising for educational initiatives, scholarship distribution, community partnerships",
		revenue:    12_000_000, expenses: 11_500_000, assets: 25_000_000,
	},
	{
		name:       "Memorial Hermann Foundation",
		ntee:       "E20",
		mission:    "To support Memorial Hermann Health System in delivering exceptional healthcare to Southeast Texas.",
		programs:   "Healthcare facility improvements, medical equipment, patient care programs, community health",
		activities: "Hospital support, medical research funding, community health initiatives, patient assistance",
		revenue:    85_000_000, expenses: 78_000_000, assets: 145_000_000,
	},
	{
		name:       "Boys & Girls Clubs of Greater Houston",
		ntee:       "P21",
		mission:    "To enable all young people to reach their full potential as productive, caring, responsible citizens.",
		programs:   "After-school programs, summer camps, character development, academic support, sports",
		activities: "Operates 50+ club sites serving 34,000 youth annually throughout Greater Houston",
		revenue:    28_000_000, expenses: 26_500_000, assets: 45_000_000,
	},
	{
		name:       "United Way of Greater Houston",
		ntee:       "P23",
		mission:    "To improve lives by mobilizing the caring power of our community.",
		programs:   "Community investments, disaster relief, volunteer mobilization, nonprofit capacity building",
		activities: "Annual fundraising campaign, strategic grantmaking, community collaboration, volunteer coordination",
		revenue:    75_000_000, expenses: 72_000_000, assets: 125_000_000,
	},
	{
		name:       "Houston Zoo",
		ntee:       "D20",
		mission:    "To provide leadership in the conservation of wildlife and the preservation of natural habitats.",
		programs:   "Animal conservation, education programs, research, habitat preservation, visitor experiences",
		activities: "Zoo operations, conservation projects, educational outreach, research partnerships",
		revenue:    65_000_000, expenses: 62_000_000, assets: 180_000_000,
	},
	{
		name:       "Houston Public Library Foundation",
		ntee:       "B28",
		mission:    "To ensure all residents have access to library services and programs that enrich their lives.",
		programs:   "Digital literacy, early childhood programs, adult education, community programs, collections",
		activities: "Library support, program funding, technology initiatives, literacy programs",
		revenue:    8_500_000, expenses: 8_000_000, assets: 15_000_000,
	},
	{
		name:       "Houston Methodist Hospital Foundation",
		ntee:       "E20",
		mission:    "To advance medical research, education, and patient care at Houston Methodist Hospital.",
		programs:   "Medical research, physician education, patient care improvements, facility enhancements",
		activities: "Research funding, medical education support, hospital facility improvements, patient services",
		revenue:    125_000_000, expenses: 115_000_000, assets: 285_000_000,
	},
	{
		name:       "Star of Hope Mission",
		ntee:       "P20",
		mission:    "To provide Christ-centered services to homeless and disadvantaged individuals and families.",
		programs:   "Emergency shelter, transitional housing, addiction recovery, job training, family services",
		activities: "Operates multiple shelters and recovery centers serving over 60,000 people annually",
		revenue:    18_000_000, expenses: 17_200_000, assets: 35_000_000,
	},
	{
		name:       "Harris County Public Library Foundation",
		ntee:       "B28",
		mission:    "To enhance library services and programs for Harris County residents.",
		programs:   "Digital resources, community programs, literacy initiatives, technology access",
		activities: "Library system support, program funding, technology upgrades, community outreach",
		revenue:    3_500_000, expenses: 3_200_000, assets: 8_000_000,
	},
}

var sampleTemplates = []struct {
	kind    string
	ntee    string
	mission string
}{
	{"Community Health Center", "E21", "To provide accessible healthcare services to underserved communities."},
	{"Youth Development Center", "P21", "To provide safe spaces and programs for youth development."},
	{"Arts Education Foundation", "A25", "To promote arts education in schools and communities."},
	{"Environmental Conservation Group", "C30", "To protect and preserve local environmental resources."},
	{"Senior Services Organization", "P22", "To provide support services for elderly community members."},
	{"Cultural Heritage Center", "A23", "To preserve and celebrate cultural heritage and traditions."},
	{"Community Recreation Center", "N21", "To provide recreational opportunities for all community members."},
	{"Food Pantry", "P24", "To provide emergency food assistance to families in need."},
	{"Literacy Program", "B25", "To improve literacy rates through education and support programs."},
	{"Housing Assistance Organization", "P20", "To provide housing support and services to those in need."},
}

// SampleOrganizations returns the built-in demonstration dataset: a dozen
// well-known Houston institutions plus generated neighborhood organizations,
// sixty records in all. Every value is fixed so repeated seeding is
// idempotent and the Houston Food Bank stays the largest by revenue.
func SampleOrganizations() []corpus.Organization {
	orgs := make([]corpus.Organization, 0, sampleSize)
	for i, anchor := range sampleAnchors {
		orgs = append(orgs, corpus.Organization{
			EIN:             fmt.Sprintf("74-1%06d", i+1),
			Name:            anchor.name,
			NTEECode:        anchor.ntee,
			NTEEDescription: NTEEDescription(anchor.ntee),
			Mission:         anchor.mission,
			Programs:        anchor.programs,
			Activities:      anchor.activities,
			City:            "Houston",
			State:           "TX",
			Revenue:         money(anchor.revenue),
			Expenses:        money(anchor.expenses),
			NetAssets:       money(anchor.assets),
			Website:         sampleWebsite(anchor.name),
		})
	}
	for i := 0; len(orgs) < sampleSize; i++ {
		tmpl := sampleTemplates[i%len(sampleTemplates)]
		revenue := float64(500_000 + (i*977)%29*500_000)
		expenses := math.Round(revenue * (0.85 + float64((i*13)%11)/100))
		assets := math.Round(revenue * (0.5 + float64((i*7)%21)/10))
		name := fmt.Sprintf("Houston %s #%d", tmpl.kind, i+1)
		orgs = append(orgs, corpus.Organization{
			EIN:             fmt.Sprintf("74-2%06d", i+1),
			Name:            name,
			NTEECode:        tmpl.ntee,
			NTEEDescription: NTEEDescription(tmpl.ntee),
			Mission:         tmpl.mission,
			Programs:        fmt.Sprintf("%s programs and services for the Houston community.", tmpl.kind),
			Activities:      "Community outreach, direct services, partnerships with local organizations.",
			City:            "Houston",
			State:           "TX",
			Revenue:         money(revenue),
			Expenses:        money(expenses),
			NetAssets:       money(assets),
			Website:         sampleWebsite(name),
		})
	}
	return orgs
}

func money(v float64) *float64 { return &v }

func sampleWebsite(name string) string {
	cleaned := strings.ReplaceAll(strings.ToLower(name), "&", "and")
	var b strings.Builder
	for _, r := range cleaned {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return fmt.Sprintf("https://www.%s.org", b.String())
}
