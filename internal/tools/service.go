package tools

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/healthassist/healthassist/internal/domain/insights"
	"github.com/healthassist/healthassist/internal/platform/inference"
	"github.com/healthassist/healthassist/pkg/vitals"
)

// urgencyLabels is the fixed candidate set for symptom triage.
var urgencyLabels = []string{"emergency", "urgent", "non-urgent", "routine"}

// TextGenerator produces free-text completions for a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// UrgencyClassifier scores a text against candidate labels.
type UrgencyClassifier interface {
	Classify(ctx context.Context, text string, labels []string) (*inference.Classification, error)
}

// Embedder turns text into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// ImageClassifier labels a raw image.
type ImageClassifier interface {
	ClassifyImage(ctx context.Context, image []byte) ([]inference.Prediction, error)
}

// ReportSaver persists generated health insight reports.
type ReportSaver interface {
	Save(ctx context.Context, patientID uuid.UUID, text string, assessment vitals.Report, snapshot json.RawMessage) (*insights.Report, error)
}

// Service implements the assistant's tools on top of the inference clients
// and registers them with a Registry.
type Service struct {
	gen        TextGenerator
	classifier UrgencyClassifier
	embedder   Embedder
	vision     ImageClassifier
	reports    ReportSaver
	registry   *Registry
	now        func() time.Time
}

func NewService(registry *Registry, gen TextGenerator, classifier UrgencyClassifier, embedder Embedder, vision ImageClassifier, reports ReportSaver) (*Service, error) {
	s := &Service{
		gen:        gen,
		classifier: classifier,
		embedder:   embedder,
		vision:     vision,
		reports:    reports,
		registry:   registry,
		now:        time.Now,
	}
	if err := s.registerTools(); err != nil {
		return nil, err
	}
	return s, nil
}

// Registry returns the registry the tools were registered with.
func (s *Service) Registry() *Registry { return s.registry }

func (s *Service) registerTools() error {
	defs := []Tool{
		{
			Name:        "generate_text",
			Description: "Generate free-form text from a prompt",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"prompt":{"type":"string"}},"required":["prompt"]}`),
			Handler:     s.generateText,
		},
		{
			Name:        "analyze_symptoms",
			Description: "Analyze reported symptoms and classify their urgency",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"symptoms":{"type":"array","items":{"type":"string"}},"patient_data":{"type":"object","properties":{"age":{"type":"integer"},"history":{"type":"string"}}}},"required":["symptoms"]}`),
			Handler:     s.analyzeSymptoms,
		},
		{
			Name:        "get_treatment_suggestions",
			Description: "Suggest a treatment plan for a condition given patient history",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"condition":{"type":"string"},"patient_history":{"type":"string"}},"required":["condition"]}`),
			Handler:     s.treatmentSuggestions,
		},
		{
			Name:        "get_semantic_similarity",
			Description: "Score the semantic similarity of two medical texts",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"text1":{"type":"string"},"text2":{"type":"string"}},"required":["text1","text2"]}`),
			Handler:     s.semanticSimilarity,
		},
		{
			Name:        "medical_image_analysis",
			Description: "Classify a medical image and describe the findings",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"image_b64":{"type":"string"}},"required":["image_b64"]}`),
			Handler:     s.imageAnalysis,
		},
		{
			Name:        "generate_health_insights",
			Description: "Assess vital signs and generate personalized health insights",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"patient_id":{"type":"string"},"patient_data":{"type":"object"}},"required":["patient_data"]}`),
			Handler:     s.healthInsights,
		},
	}

	for _, def := range defs {
		if err := s.registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}

type generateTextParams struct {
	Prompt string `json:"prompt"`
}

func (s *Service) generateText(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var params generateTextParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	if strings.TrimSpace(params.Prompt) == "" {
		return nil, fmt.Errorf("%w: prompt is required", ErrInvalidParams)
	}
	return s.gen.Generate(ctx, params.Prompt)
}

type analyzeSymptomsParams struct {
	Symptoms    []string `json:"symptoms"`
	PatientData *struct {
		Age     int    `json:"age"`
		History string `json:"history"`
	} `json:"patient_data"`
}

type symptomAnalysis struct {
	Analysis   string  `json:"analysis"`
	Urgency    string  `json:"urgency"`
	Confidence float64 `json:"confidence"`
}

func (s *Service) analyzeSymptoms(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var params analyzeSymptomsParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	if len(params.Symptoms) == 0 {
		return nil, fmt.Errorf("%w: symptoms are required", ErrInvalidParams)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Symptoms: %s", strings.Join(params.Symptoms, ", "))
	if params.PatientData != nil {
		fmt.Fprintf(&sb, "\nPatient Age: %d", params.PatientData.Age)
		history := params.PatientData.History
		if history == "" {
			history = "N/A"
		}
		fmt.Fprintf(&sb, "\nMedical History: %s", history)
	}
	symptomContext := sb.String()

	prompt := fmt.Sprintf(
		"As a medical assistant, analyze the following symptoms and provide a preliminary assessment. "+
			"Mention possible causes and whether the patient should seek care.\n\n%s",
		symptomContext,
	)
	analysis, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generating analysis: %w", err)
	}

	classification, err := s.classifier.Classify(ctx, symptomContext, urgencyLabels)
	if err != nil {
		return nil, fmt.Errorf("classifying urgency: %w", err)
	}
	label, score := classification.Top()

	return symptomAnalysis{Analysis: analysis, Urgency: label, Confidence: score}, nil
}

type treatmentParams struct {
	Condition      string `json:"condition"`
	PatientHistory string `json:"patient_history"`
}

type treatmentSuggestion struct {
	TreatmentPlan   string    `json:"treatment_plan"`
	ConditionVector []float64 `json:"condition_vector"`
	GeneratedAt     time.Time `json:"generated_at"`
}

func (s *Service) treatmentSuggestions(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var params treatmentParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	if strings.TrimSpace(params.Condition) == "" {
		return nil, fmt.Errorf("%w: condition is required", ErrInvalidParams)
	}

	history := params.PatientHistory
	if history == "" {
		history = "None provided"
	}
	prompt := fmt.Sprintf(
		"As a medical assistant, suggest evidence-based treatment options for the following condition. "+
			"Take the patient history into account and note any contraindications.\n\n"+
			"Condition: %s\nPatient History: %s",
		params.Condition, history,
	)
	plan, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generating treatment plan: %w", err)
	}

	vector, err := s.embedder.Embed(ctx, params.Condition)
	if err != nil {
		return nil, fmt.Errorf("embedding condition: %w", err)
	}

	return treatmentSuggestion{
		TreatmentPlan:   plan,
		ConditionVector: vector,
		GeneratedAt:     s.now().UTC(),
	}, nil
}

type similarityParams struct {
	Text1 string `json:"text1"`
	Text2 string `json:"text2"`
}

type similarityResult struct {
	Similarity float64 `json:"similarity"`
}

func (s *Service) semanticSimilarity(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var params similarityParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	if strings.TrimSpace(params.Text1) == "" || strings.TrimSpace(params.Text2) == "" {
		return nil, fmt.Errorf("%w: text1 and text2 are required", ErrInvalidParams)
	}

	v1, err := s.embedder.Embed(ctx, params.Text1)
	if err != nil {
		return nil, fmt.Errorf("embedding text1: %w", err)
	}
	v2, err := s.embedder.Embed(ctx, params.Text2)
	if err != nil {
		return nil, fmt.Errorf("embedding text2: %w", err)
	}

	return similarityResult{Similarity: inference.CosineSimilarity(v1, v2)}, nil
}

type imageAnalysisParams struct {
	ImageB64 string `json:"image_b64"`
}

type imageAnalysisResult struct {
	Classification []inference.Prediction `json:"classification"`
	Analysis       string                 `json:"analysis"`
	Confidence     float64                `json:"confidence"`
}

// imageAnalysisError is returned as the tool result when inference fails, so
// callers see a structured failure rather than a transport error.
type imageAnalysisError struct {
	Error string `json:"error"`
}

func (s *Service) imageAnalysis(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var params imageAnalysisParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	if params.ImageB64 == "" {
		return nil, fmt.Errorf("%w: image_b64 is required", ErrInvalidParams)
	}
	image, err := base64.StdEncoding.DecodeString(params.ImageB64)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding image: %v", ErrInvalidParams, err)
	}

	predictions, err := s.vision.ClassifyImage(ctx, image)
	if err != nil {
		return imageAnalysisError{Error: fmt.Sprintf("image classification failed: %v", err)}, nil
	}

	top := predictions[0]
	prompt := fmt.Sprintf(
		"A medical image was classified as %q with confidence %.2f. "+
			"Describe what this finding could indicate and what follow-up is appropriate.",
		top.Label, top.Score,
	)
	analysis, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return imageAnalysisError{Error: fmt.Sprintf("analysis generation failed: %v", err)}, nil
	}

	return imageAnalysisResult{
		Classification: predictions,
		Analysis:       analysis,
		Confidence:     top.Score,
	}, nil
}

type healthInsightsParams struct {
	PatientID   string `json:"patient_id"`
	PatientData struct {
		Age            int                          `json:"age"`
		Gender         string                       `json:"gender"`
		MedicalHistory string                       `json:"medical_history"`
		Medications    []string                     `json:"medications"`
		Vitals         *vitals.MeasurementSnapshot  `json:"vitals"`
		History        []vitals.MeasurementSnapshot `json:"history"`
	} `json:"patient_data"`
}

type healthInsightsResult struct {
	Insights     string              `json:"insights"`
	VitalSigns   vitals.VitalSigns   `json:"vital_signs"`
	Trends       vitals.TrendReport  `json:"trends"`
	RiskFactors  []vitals.RiskFactor `json:"risk_factors"`
	GeneratedAt  time.Time           `json:"generated_at"`
	DataSnapshot json.RawMessage     `json:"data_snapshot"`
}

func (s *Service) healthInsights(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var params healthInsightsParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	pd := params.PatientData
	if pd.Vitals == nil {
		return nil, fmt.Errorf("%w: patient_data.vitals is required", ErrInvalidParams)
	}

	assessment, err := vitals.Analyze(*pd.Vitals, pd.History)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}

	medications := "None"
	if len(pd.Medications) > 0 {
		medications = strings.Join(pd.Medications, ", ")
	}
	history := pd.MedicalHistory
	if history == "" {
		history = "None recorded"
	}
	risk := "none identified"
	if len(assessment.RiskFactors) > 0 {
		names := make([]string, len(assessment.RiskFactors))
		for i, rf := range assessment.RiskFactors {
			names[i] = rf.Factor
		}
		risk = strings.Join(names, "; ")
	}
	bp := assessment.VitalSigns.BloodPressure
	prompt := fmt.Sprintf(
		"As a medical assistant, generate personalized health insights for this patient. "+
			"Summarize their current state and give practical recommendations.\n\n"+
			"Age: %d\nGender: %s\nMedical History: %s\nMedications: %s\n"+
			"Blood Pressure: %.0f/%.0f (%s)\nHeart Rate: %.0f bpm (%s)\nTemperature: %.1f C (%s)\nRisk Factors: %s",
		pd.Age, pd.Gender, history, medications,
		bp.Systolic, bp.Diastolic, bp.Category,
		assessment.VitalSigns.HeartRate.Value, assessment.VitalSigns.HeartRate.Category,
		assessment.VitalSigns.Temperature.Value, assessment.VitalSigns.Temperature.Category, risk,
	)
	text, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generating insights: %w", err)
	}

	snapshot, err := json.Marshal(pd)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}

	result := healthInsightsResult{
		Insights:     text,
		VitalSigns:   assessment.VitalSigns,
		Trends:       assessment.Trends,
		RiskFactors:  assessment.RiskFactors,
		GeneratedAt:  s.now().UTC(),
		DataSnapshot: snapshot,
	}

	if params.PatientID != "" && s.reports != nil {
		patientID, err := uuid.Parse(params.PatientID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid patient_id", ErrInvalidParams)
		}
		if _, err := s.reports.Save(ctx, patientID, text, *assessment, snapshot); err != nil {
			return nil, fmt.Errorf("saving report: %w", err)
		}
	}

	return result, nil
}
