package vc

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// AdvancedVerificationWorkflow provides sophisticated verification flows
type AdvancedVerificationWorkflow struct {
	verifier    CredentialVerifier
	concurrency int
}

// WorkflowOptions provides configuration for verification workflows
type WorkflowOptions struct {
	Concurrency      int                    `json:"concurrency"`
	FailFast         bool                   `json:"failFast"`
	TrustFramework   string                 `json:"trustFramework,omitempty"`
	ValidateSchemas  bool                   `json:"validateSchemas"`
	CheckStatus      bool                   `json:"checkStatus"`
	CustomPolicies   []CustomPolicy         `json:"customPolicies,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

// CustomPolicy defines custom verification policies
type CustomPolicy struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Type        string                 `json:"type"` // "pre-verification", "post-verification", "conditional"
	Conditions  map[string]interface{} `json:"conditions,omitempty"`
	Actions     []string               `json:"actions"`
	Script      string                 `json:"script,omitempty"` // Future: support for script-based policies
}

// BatchVerificationResult contains results for batch verification
type BatchVerificationResult struct {
	TotalCount     int                           `json:"totalCount"`
	SuccessCount   int                           `json:"successCount"`
	FailureCount   int                           `json:"failureCount"`
	Results        map[string]*VerificationResult `json:"results"`
	ExecutionTime  time.Duration                 `json:"executionTime"`
	Errors         []BatchError                  `json:"errors,omitempty"`
	Summary        *VerificationSummary          `json:"summary"`
}

// BatchError represents an error in batch processing
type BatchError struct {
	ItemID      string `json:"itemId"`
	Error       string `json:"error"`
	Stage       string `json:"stage"` // "preparation", "verification", "post-processing"
	Recoverable bool   `json:"recoverable"`
}

// VerificationSummary provides high-level verification statistics
type VerificationSummary struct {
	OverallStatus      string                 `json:"overallStatus"` // "pass", "fail", "partial"
	VerifiedCredentials int                   `json:"verifiedCredentials"`
	TrustLevels        map[string]int         `json:"trustLevels"`
	IssuersAnalysis    *IssuersAnalysis       `json:"issuersAnalysis"`
	PolicyViolations   []PolicyViolation      `json:"policyViolations,omitempty"`
	Recommendations    []string               `json:"recommendations,omitempty"`
	Metadata           map[string]interface{} `json:"metadata,omitempty"`
}

// IssuersAnalysis provides analysis of credential issuers
type IssuersAnalysis struct {
	UniqueIssuers   []string           `json:"uniqueIssuers"`
	IssuerCounts    map[string]int     `json:"issuerCounts"`
	TrustedIssuers  []string           `json:"trustedIssuers"`
	UnknownIssuers  []string           `json:"unknownIssuers"`
	SuspiciousIssuers []string         `json:"suspiciousIssuers,omitempty"`
}

// MultiStepVerificationFlow handles complex verification sequences
type MultiStepVerificationFlow struct {
	ID          string                  `json:"id"`
	Name        string                  `json:"name"`
	Description string                  `json:"description"`
	Steps       []VerificationStep      `json:"steps"`
	Context     map[string]interface{}  `json:"context"`
	State       FlowState               `json:"state"`
	Results     map[string]interface{}  `json:"results"`
	StartedAt   time.Time               `json:"startedAt"`
	CompletedAt *time.Time              `json:"completedAt,omitempty"`
}

// VerificationStep represents a single step in a multi-step flow
type VerificationStep struct {
	ID           string                  `json:"id"`
	Name         string                  `json:"name"`
	Type         string                  `json:"type"` // "credential", "presentation", "policy", "custom"
	Dependencies []string                `json:"dependencies,omitempty"`
	Configuration map[string]interface{} `json:"configuration"`
	Status       StepStatus              `json:"status"`
	Result       interface{}             `json:"result,omitempty"`
	Error        string                  `json:"error,omitempty"`
	ExecutedAt   *time.Time              `json:"executedAt,omitempty"`
}

// FlowState represents the state of a verification flow
type FlowState string

const (
	FlowStatePending   FlowState = "pending"
	FlowStateRunning   FlowState = "running"
	FlowStateCompleted FlowState = "completed"
	FlowStateFailed    FlowState = "failed"
	FlowStatePaused    FlowState = "paused"
)

// StepStatus represents the status of a verification step
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusRunning   StepStatus = "running"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// NewAdvancedVerificationWorkflow creates a new advanced verification workflow
func NewAdvancedVerificationWorkflow(verifier CredentialVerifier) *AdvancedVerificationWorkflow {
	return &AdvancedVerificationWorkflow{
		verifier:    verifier,
		concurrency: 5, // Default concurrency
	}
}

// VerifyBatch performs batch verification of multiple credentials
func (avw *AdvancedVerificationWorkflow) VerifyBatch(
	ctx context.Context,
	credentials []*VerifiableCredential,
	options *WorkflowOptions,
) (*BatchVerificationResult, error) {

	startTime := time.Now()
	
	if options == nil {
		options = &WorkflowOptions{
			Concurrency: avw.concurrency,
		}
	}

	result := &BatchVerificationResult{
		TotalCount: len(credentials),
		Results:    make(map[string]*VerificationResult),
		Errors:     make([]BatchError, 0),
		Summary: &VerificationSummary{
			TrustLevels:     make(map[string]int),
			IssuersAnalysis: &IssuersAnalysis{
				IssuerCounts: make(map[string]int),
			},
		},
	}

	// Create verification tasks
	tasks := make(chan *verificationTask, len(credentials))
	results := make(chan *verificationTaskResult, len(credentials))

	// Start workers
	var wg sync.WaitGroup
	for i := 0; i < options.Concurrency; i++ {
		wg.Add(1)
		go avw.verificationWorker(ctx, tasks, results, options, &wg)
	}

	// Submit tasks
	go func() {
		defer close(tasks)
		for i, cred := range credentials {
			task := &verificationTask{
				ID:         fmt.Sprintf("cred-%d", i),
				Credential: cred,
				Index:      i,
			}
			
			select {
			case tasks <- task:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Collect results
	go func() {
		wg.Wait()
		close(results)
	}()

	// Process results
	for taskResult := range results {
		result.Results[taskResult.ID] = taskResult.Result
		
		if taskResult.Error != nil {
			result.Errors = append(result.Errors, BatchError{
				ItemID:      taskResult.ID,
				Error:       taskResult.Error.Error(),
				Stage:       "verification",
				Recoverable: false,
			})
			result.FailureCount++
		} else if taskResult.Result.Verified {
			result.SuccessCount++
		} else {
			result.FailureCount++
		}

		// Fail fast if enabled
		if options.FailFast && taskResult.Error != nil {
			break
		}
	}

	result.ExecutionTime = time.Since(startTime)
	
	// Generate summary
	avw.generateVerificationSummary(result, credentials)

	return result, nil
}

// verificationTask represents a single verification task
type verificationTask struct {
	ID         string
	Credential *VerifiableCredential
	Index      int
}

// verificationTaskResult represents the result of a verification task
type verificationTaskResult struct {
	ID     string
	Result *VerificationResult
	Error  error
}

// verificationWorker processes verification tasks
func (avw *AdvancedVerificationWorkflow) verificationWorker(
	ctx context.Context,
	tasks <-chan *verificationTask,
	results chan<- *verificationTaskResult,
	options *WorkflowOptions,
	wg *sync.WaitGroup,
) {
	defer wg.Done()

	for task := range tasks {
		select {
		case <-ctx.Done():
			return
		default:
			// Create verification options
			verifyOptions := &VerificationOptions{
				ValidateSchema: options.ValidateSchemas,
				CheckStatus:    options.CheckStatus,
				TrustFramework: options.TrustFramework,
			}

			// Perform verification
			result, err := avw.verifier.VerifyCredential(task.Credential, verifyOptions)
			
			taskResult := &verificationTaskResult{
				ID:     task.ID,
				Result: result,
				Error:  err,
			}

			select {
			case results <- taskResult:
			case <-ctx.Done():
				return
			}
		}
	}
}

// CreateMultiStepFlow creates a new multi-step verification flow
func (avw *AdvancedVerificationWorkflow) CreateMultiStepFlow(
	flowID string,
	steps []VerificationStep,
) *MultiStepVerificationFlow {
	return &MultiStepVerificationFlow{
		ID:        flowID,
		Steps:     steps,
		Context:   make(map[string]interface{}),
		State:     FlowStatePending,
		Results:   make(map[string]interface{}),
		StartedAt: time.Now(),
	}
}

// ExecuteMultiStepFlow executes a multi-step verification flow
func (avw *AdvancedVerificationWorkflow) ExecuteMultiStepFlow(
	ctx context.Context,
	flow *MultiStepVerificationFlow,
	inputs map[string]interface{},
) error {

	flow.State = FlowStateRunning
	
	// Execute steps in order, skipping steps whose dependencies have not completed
	for i := range flow.Steps {
		step := &flow.Steps[i]
		// Check dependencies
		if !avw.checkStepDependencies(*step, flow) {
			step.Status = StepStatusSkipped
			continue
		}

		step.Status = StepStatusRunning
		now := time.Now()
		step.ExecutedAt = &now

		// Execute step
		result, err := avw.executeVerificationStep(ctx, step, flow, inputs)
		if err != nil {
			step.Status = StepStatusFailed
			step.Error = err.Error()
			flow.State = FlowStateFailed
			return fmt.Errorf("step %s failed: %w", step.ID, err)
		}

		step.Status = StepStatusCompleted
		step.Result = result
		flow.Results[step.ID] = result
	}

	flow.State = FlowStateCompleted
	now := time.Now()
	flow.CompletedAt = &now

	return nil
}

// checkStepDependencies verifies that step dependencies are satisfied
func (avw *AdvancedVerificationWorkflow) checkStepDependencies(
	step VerificationStep,
	flow *MultiStepVerificationFlow,
) bool {
	for _, depID := range step.Dependencies {
		// Find dependency step
		depSatisfied := false
		for _, depStep := range flow.Steps {
			if depStep.ID == depID && depStep.Status == StepStatusCompleted {
				depSatisfied = true
				break
			}
		}
		if !depSatisfied {
			return false
		}
	}
	return true
}

// executeVerificationStep executes a single verification step
func (avw *AdvancedVerificationWorkflow) executeVerificationStep(
	ctx context.Context,
	step *VerificationStep,
	flow *MultiStepVerificationFlow,
	inputs map[string]interface{},
) (interface{}, error) {

	switch step.Type {
	case "credential":
		return avw.executeCredentialStep(ctx, step, flow, inputs)
	case "presentation":
		return avw.executePresentationStep(ctx, step, flow, inputs)
	case "policy":
		return avw.executePolicyStep(ctx, step, flow, inputs)
	case "custom":
		return avw.executeCustomStep(ctx, step, flow, inputs)
	default:
		return nil, fmt.Errorf("unknown step type: %s", step.Type)
	}
}

// executeCredentialStep executes a credential verification step
func (avw *AdvancedVerificationWorkflow) executeCredentialStep(
	ctx context.Context,
	step *VerificationStep,
	flow *MultiStepVerificationFlow,
	inputs map[string]interface{},
) (interface{}, error) {

	// Extract credential from inputs or configuration
	var credential *VerifiableCredential
	
	if credInput, exists := inputs["credential"]; exists {
		if cred, ok := credInput.(*VerifiableCredential); ok {
			credential = cred
		}
	}

	if credential == nil {
		return nil, fmt.Errorf("no credential provided for step %s", step.ID)
	}

	// Create verification options from step configuration
	options := &VerificationOptions{}
	if validateSchema, exists := step.Configuration["validateSchema"]; exists {
		if validate, ok := validateSchema.(bool); ok {
			options.ValidateSchema = validate
		}
	}

	if trustFramework, exists := step.Configuration["trustFramework"]; exists {
		if framework, ok := trustFramework.(string); ok {
			options.TrustFramework = framework
		}
	}

	// Perform verification
	return avw.verifier.VerifyCredential(credential, options)
}

// executePresentationStep executes a presentation verification step
func (avw *AdvancedVerificationWorkflow) executePresentationStep(
	ctx context.Context,
	step *VerificationStep,
	flow *MultiStepVerificationFlow,
	inputs map[string]interface{},
) (interface{}, error) {

	// Extract presentation from inputs
	var presentation *VerifiablePresentation
	
	if presInput, exists := inputs["presentation"]; exists {
		if pres, ok := presInput.(*VerifiablePresentation); ok {
			presentation = pres
		}
	}

	if presentation == nil {
		return nil, fmt.Errorf("no presentation provided for step %s", step.ID)
	}

	// Create verification options
	options := &VerificationOptions{}
	if challenge, exists := step.Configuration["challenge"]; exists {
		if ch, ok := challenge.(string); ok {
			options.Challenge = ch
		}
	}

	if domain, exists := step.Configuration["domain"]; exists {
		if dom, ok := domain.(string); ok {
			options.Domain = dom
		}
	}

	// Perform presentation verification
	return avw.verifier.VerifyPresentation(presentation, options)
}

// executePolicyStep executes a policy evaluation step
func (avw *AdvancedVerificationWorkflow) executePolicyStep(
	ctx context.Context,
	step *VerificationStep,
	flow *MultiStepVerificationFlow,
	inputs map[string]interface{},
) (interface{}, error) {

	// This would integrate with trust framework for policy evaluation
	// For now, return a placeholder result
	return map[string]interface{}{
		"policyResult": "pass",
		"evaluated":    true,
	}, nil
}

// executeCustomStep executes a custom verification step
func (avw *AdvancedVerificationWorkflow) executeCustomStep(
	ctx context.Context,
	step *VerificationStep,
	flow *MultiStepVerificationFlow,
	inputs map[string]interface{},
) (interface{}, error) {

	// Custom steps would allow for user-defined verification logic
	// For now, return a placeholder result
	return map[string]interface{}{
		"customResult": "completed",
		"stepId":       step.ID,
	}, nil
}

// generateVerificationSummary generates a summary of batch verification results
func (avw *AdvancedVerificationWorkflow) generateVerificationSummary(
	result *BatchVerificationResult,
	credentials []*VerifiableCredential,
) {
	
	summary := result.Summary
	
	// Calculate overall status
	if result.FailureCount == 0 {
		summary.OverallStatus = "pass"
	} else if result.SuccessCount == 0 {
		summary.OverallStatus = "fail"
	} else {
		summary.OverallStatus = "partial"
	}

	summary.VerifiedCredentials = result.SuccessCount

	// Analyze issuers
	issuerCounts := make(map[string]int)
	uniqueIssuers := make(map[string]bool)

	for _, cred := range credentials {
		issuerID := getIssuerID(cred.Issuer)
		issuerCounts[issuerID]++
		uniqueIssuers[issuerID] = true
	}

	summary.IssuersAnalysis.IssuerCounts = issuerCounts
	for issuer := range uniqueIssuers {
		summary.IssuersAnalysis.UniqueIssuers = append(
			summary.IssuersAnalysis.UniqueIssuers, issuer)
	}

	// Generate recommendations
	if result.FailureCount > 0 {
		summary.Recommendations = append(summary.Recommendations,
			"Review failed credential verifications")
	}

	if len(summary.IssuersAnalysis.UnknownIssuers) > 0 {
		summary.Recommendations = append(summary.Recommendations,
			"Consider adding unknown issuers to trust framework")
	}
}