package portal

import (
	"github.com/felixgeelhaar/kavach/internal/session"
)

// LoginRequest is the body of both login endpoints
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token and the signed-in user
type LoginResponse struct {
	AccessToken string           `json:"access_token"`
	Token       string           `json:"token,omitempty"`
	TokenType   string           `json:"token_type,omitempty"`
	User        *session.Profile `json:"user,omitempty"`
}

// BearerToken returns whichever token field the server filled
func (r *LoginResponse) BearerToken() string {
	if r.AccessToken != "" {
		return r.AccessToken
	}
	return r.Token
}

// DashboardStats summarizes claims for the signed-in user
type DashboardStats struct {
	TotalClaims         int     `json:"total_claims"`
	PendingClaims       int     `json:"pending_claims"`
	ApprovedClaims      int     `json:"approved_claims"`
	RejectedClaims      int     `json:"rejected_claims"`
	FlaggedClaims       int     `json:"flagged_claims,omitempty"`
	TotalClaimedAmount  float64 `json:"total_claimed_amount"`
	TotalApprovedAmount float64 `json:"total_approved_amount"`
}

// Dashboard is the landing view after login
type Dashboard struct {
	User         *session.Profile `json:"user,omitempty"`
	Stats        DashboardStats   `json:"stats"`
	RecentClaims []Claim          `json:"recent_claims,omitempty"`
	Policies     []Policy         `json:"policies,omitempty"`
}

// Policy is an insurance policy held by a customer
type Policy struct {
	ID           string  `json:"id"`
	PolicyNumber string  `json:"policy_number"`
	PolicyType   string  `json:"policy_type"`
	HolderName   string  `json:"holder_name,omitempty"`
	SumInsured   float64 `json:"sum_insured"`
	Premium      float64 `json:"premium,omitempty"`
	StartDate    string  `json:"start_date,omitempty"`
	EndDate      string  `json:"end_date,omitempty"`
	Status       string  `json:"status"`
}

// ClaimStatus is the review state of a claim
type ClaimStatus string

const (
	ClaimSubmitted        ClaimStatus = "submitted"
	ClaimUnderReview      ClaimStatus = "under_review"
	ClaimPendingDocuments ClaimStatus = "pending_documents"
	ClaimApproved         ClaimStatus = "approved"
	ClaimRejected         ClaimStatus = "rejected"
)

// Claim is a claim as listed and shown
type Claim struct {
	ID           string         `json:"id"`
	ClaimNumber  string         `json:"claim_number,omitempty"`
	PolicyID     string         `json:"policy_id"`
	PolicyNumber string         `json:"policy_number,omitempty"`
	CustomerName string         `json:"customer_name,omitempty"`
	ClaimType    string         `json:"claim_type"`
	Amount       float64        `json:"claim_amount"`
	Status       ClaimStatus    `json:"status"`
	Description  string         `json:"description,omitempty"`
	IncidentDate string         `json:"incident_date,omitempty"`
	HospitalName string         `json:"hospital_name,omitempty"`
	SubmittedAt  string         `json:"submitted_at,omitempty"`
	Documents    []Document     `json:"documents,omitempty"`
	FraudScore   *float64       `json:"fraud_score,omitempty"`
	Decision     *DecisionEntry `json:"decision,omitempty"`
}

// ClaimSubmission is the body of submit_claim
type ClaimSubmission struct {
	PolicyID     string  `json:"policy_id"`
	ClaimType    string  `json:"claim_type"`
	Amount       float64 `json:"claim_amount"`
	Description  string  `json:"description"`
	IncidentDate string  `json:"incident_date,omitempty"`
	HospitalName string  `json:"hospital_name,omitempty"`
}

// Document is a file attached to a claim
type Document struct {
	ID           string `json:"id"`
	ClaimID      string `json:"claim_id,omitempty"`
	DocumentType string `json:"document_type"`
	FileName     string `json:"file_name"`
	Status       string `json:"status,omitempty"`
	Verified     bool   `json:"verified"`
	Digest       string `json:"blake3,omitempty"`
	UploadedAt   string `json:"uploaded_at,omitempty"`
}

// DocumentUpload is the body of upload_document. Content is base64.
type DocumentUpload struct {
	DocumentType string `json:"document_type"`
	FileName     string `json:"file_name"`
	ContentType  string `json:"content_type"`
	Content      string `json:"content"`
	Size         int    `json:"size"`
	Digest       string `json:"blake3"`
}

// DocumentVerification is the result of verify_document
type DocumentVerification struct {
	DocumentID string   `json:"document_id"`
	Verified   bool     `json:"verified"`
	Confidence float64  `json:"confidence,omitempty"`
	Issues     []string `json:"issues,omitempty"`
	Message    string   `json:"message,omitempty"`
}

// FraudAnalysis is the result of a fraud analysis run
type FraudAnalysis struct {
	ClaimID        string   `json:"claim_id"`
	Status         string   `json:"status"`
	RiskScore      float64  `json:"risk_score"`
	RiskLevel      string   `json:"risk_level,omitempty"`
	Indicators     []string `json:"indicators,omitempty"`
	Recommendation string   `json:"recommendation,omitempty"`
	AnalyzedAt     string   `json:"analyzed_at,omitempty"`
}

// HospitalVerificationRequest is the body of verify_hospital
type HospitalVerificationRequest struct {
	HospitalName       string `json:"hospital_name"`
	RegistrationNumber string `json:"registration_number,omitempty"`
}

// HospitalVerification is the result of verify_hospital
type HospitalVerification struct {
	ClaimID            string `json:"claim_id"`
	HospitalName       string `json:"hospital_name"`
	RegistrationNumber string `json:"registration_number,omitempty"`
	Verified           bool   `json:"verified"`
	Message            string `json:"message,omitempty"`
}

// Outcome is an employee's decision on a claim
type Outcome string

const (
	Approve     Outcome = "approve"
	Reject      Outcome = "reject"
	RequestInfo Outcome = "request_info"
)

// ParseOutcome validates a decision outcome
func ParseOutcome(s string) (Outcome, bool) {
	switch Outcome(s) {
	case Approve, Reject, RequestInfo:
		return Outcome(s), true
	}
	return "", false
}

// Decision is the body of submit_decision
type Decision struct {
	Decision       Outcome  `json:"decision"`
	ApprovedAmount *float64 `json:"approved_amount,omitempty"`
	Remarks        string   `json:"remarks,omitempty"`
}

// DecisionEntry is a recorded decision
type DecisionEntry struct {
	Decision       Outcome  `json:"decision"`
	ApprovedAmount *float64 `json:"approved_amount,omitempty"`
	Remarks        string   `json:"remarks,omitempty"`
	DecidedBy      string   `json:"decided_by,omitempty"`
	DecidedAt      string   `json:"decided_at,omitempty"`
}

// DecisionResult is the response of submit_decision
type DecisionResult struct {
	ClaimID string      `json:"claim_id"`
	Status  ClaimStatus `json:"status"`
	Message string      `json:"message,omitempty"`
}

// FaceVerificationRequest compares two face images stored on the server
type FaceVerificationRequest struct {
	Image1Path string `json:"image1_path"`
	Image2Path string `json:"image2_path"`
}

// FaceVerification is the face-match verdict
type FaceVerification struct {
	Status          string  `json:"status"`
	FaceMatch       bool    `json:"face_match"`
	SimilarityScore float64 `json:"similarity_score"`
	Threshold       float64 `json:"threshold"`
	ModelUsed       string  `json:"model_used,omitempty"`
	DetectorUsed    string  `json:"detector_used,omitempty"`
	DistanceMetric  string  `json:"distance_metric,omitempty"`
	Message         string  `json:"message"`
	ConfidenceLevel string  `json:"confidence_level,omitempty"`
}

// SignatureVerificationRequest compares two signature images stored on the server
type SignatureVerificationRequest struct {
	Signature1Path string `json:"signature1_path"`
	Signature2Path string `json:"signature2_path"`
}

// SignatureVerification is the signature-match verdict
type SignatureVerification struct {
	Status          string  `json:"status"`
	Match           bool    `json:"match"`
	SimilarityScore float64 `json:"similarity_score"`
	Threshold       float64 `json:"threshold"`
	Analysis        string  `json:"analysis,omitempty"`
	Message         string  `json:"message"`
}

// Health is the backend liveness report
type Health struct {
	Status    string  `json:"status"`
	Service   string  `json:"service,omitempty"`
	Model     string  `json:"model,omitempty"`
	Detector  string  `json:"detector,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
}
