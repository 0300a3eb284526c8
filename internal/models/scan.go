package models

import (
	"time"
)

// FiberShare is one entry of a material composition. A Percentage of zero or
// less means the label did not state one.
type FiberShare struct {
	Fiber      string  `json:"fiber" bson:"fiber"`
	Percentage float64 `json:"percentage" bson:"percentage"`
}

// RawAttributes holds the attributes extracted for an item, normalized at the
// ingestion boundary. The zero value means nothing could be extracted.
type RawAttributes struct {
	Composition    []FiberShare `json:"materialComposition" bson:"material_composition"`
	Origin         string       `json:"originCountry,omitempty" bson:"origin_country,omitempty"`
	Certifications []string     `json:"certifications" bson:"certifications"`
	Brand          string       `json:"brand,omitempty" bson:"brand,omitempty"`
	ProductName    string       `json:"productName,omitempty" bson:"product_name,omitempty"`
	ItemType       string       `json:"itemType,omitempty" bson:"item_type,omitempty"`
}

// IsEmpty reports whether no attribute relevant to scoring was extracted.
func (a RawAttributes) IsEmpty() bool {
	return len(a.Composition) == 0 && a.Origin == "" && len(a.Certifications) == 0
}

// FlagType is the kind of environmental or social risk an ImpactFlag reports
type FlagType string

const (
	FlagMicroplastic FlagType = "microplastic"
	FlagCarbon       FlagType = "carbon"
	FlagWater        FlagType = "water"
	FlagLabor        FlagType = "labor"
)

// Severity of an ImpactFlag
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// ImpactFlag is a human-readable warning attached to a score
type ImpactFlag struct {
	Type     FlagType `json:"type" bson:"type"`
	Severity Severity `json:"severity" bson:"severity"`
	Label    string   `json:"label" bson:"label"`
}

// Grade is the letter grade derived from a 0-100 score
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// EcoScore is the outcome of scoring one item
type EcoScore struct {
	Score int          `json:"score" bson:"score"`
	Grade Grade        `json:"grade" bson:"grade"`
	Flags []ImpactFlag `json:"flags" bson:"flags"`
}

// Candidate is an alternative product considered for recommendation
type Candidate struct {
	ID          string   `json:"id" bson:"id"`
	Title       string   `json:"title" bson:"title"`
	Brand       string   `json:"brand" bson:"brand"`
	Material    string   `json:"material" bson:"material"`
	URL         string   `json:"url,omitempty" bson:"url,omitempty"`
	Price       string   `json:"price,omitempty" bson:"price,omitempty"`
	Currency    string   `json:"currency,omitempty" bson:"currency,omitempty"`
	Description string   `json:"description,omitempty" bson:"description,omitempty"`
	Category    string   `json:"category,omitempty" bson:"category,omitempty"`
	ImageURL    string   `json:"imageUrl,omitempty" bson:"image_url,omitempty"`
	Origin      string   `json:"originCountry,omitempty" bson:"origin_country,omitempty"`
	Similarity  float64  `json:"similarity,omitempty" bson:"similarity,omitempty"`
	EcoScore    int      `json:"ecoScore" bson:"eco_score"`
	Grade       Grade    `json:"grade" bson:"grade"`
	Fibers      []string `json:"fibers,omitempty" bson:"fibers,omitempty"`
}

// ScanResult is a persisted scan of a clothing item
type ScanResult struct {
	ID              string      `json:"id" bson:"_id"`
	UserID          string      `json:"userId" bson:"user_id"`
	Timestamp       time.Time   `json:"timestamp" bson:"timestamp"`
	Material        string      `json:"material" bson:"material"`
	Country         string      `json:"country" bson:"country"`
	Brand           string      `json:"brand,omitempty" bson:"brand,omitempty"`
	ProductName     string      `json:"productName,omitempty" bson:"product_name,omitempty"`
	Certifications  []string    `json:"certifications" bson:"certifications"`
	Fibers          []string    `json:"fibers,omitempty" bson:"fibers,omitempty"`
	EcoScore        EcoScore    `json:"ecoScore" bson:"eco_score"`
	Explanation     string      `json:"explanation" bson:"explanation"`
	Confidence      float64     `json:"confidence" bson:"confidence"`
	ImprovementTips []string    `json:"improvementTips" bson:"improvement_tips"`
	ImageURI        string      `json:"imageUri,omitempty" bson:"image_uri,omitempty"`
	SimilarProducts []Candidate `json:"similarProducts" bson:"similar_products"`
}

// PreferenceProfile summarizes a user's scan history
type PreferenceProfile struct {
	CommonMaterials    []string `json:"commonMaterials"`
	AverageScore       float64  `json:"averageScore"`
	StyleSummary       string   `json:"styleSummary"`
	PreferredCountries []string `json:"preferredCountries"`
}

// ScanStats is the per-user summary returned by the stats endpoint
type ScanStats struct {
	TotalScans         int    `json:"totalScans"`
	AverageScore       int    `json:"averageScore"`
	MostCommonMaterial string `json:"mostCommonMaterial"`
	ImprovementTrend   int    `json:"improvementTrend"`
}
