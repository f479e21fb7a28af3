package helpers

import (
	"encoding/json"
)

// TestUser represents a test user fixture
type TestUser struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Default test fixtures
var DefaultTestUser = TestUser{
	Email:    "test@example.com",
	Password: "test-password-123",
}

// CreateTestLoginRequest creates a login request payload
func CreateTestLoginRequest(email, password string) map[string]interface{} {
	return map[string]interface{}{
		"email":    email,
		"password": password,
	}
}

// CreateTestStartRequest creates a prompt workflow start payload
func CreateTestStartRequest(userInput, language string) map[string]interface{} {
	return map[string]interface{}{
		"user_input": userInput,
		"language":   language,
	}
}

// CreateTestAnswerRequest creates a clarification answer payload
func CreateTestAnswerRequest(answer string) map[string]interface{} {
	return map[string]interface{}{
		"answer": answer,
	}
}

// CreateTestRefineRequest creates a refinement payload
func CreateTestRefineRequest(selectedVariant, feedback string) map[string]interface{} {
	return map[string]interface{}{
		"selected_variant": selectedVariant,
		"feedback":         feedback,
	}
}

// CreateTestRunRequest creates a test execution payload
func CreateTestRunRequest(testInput string) map[string]interface{} {
	return map[string]interface{}{
		"test_input": testInput,
	}
}

// ClarifierQuestionsPayload is the payload shape a clarifier completion
// returns when it needs more information
func ClarifierQuestionsPayload(questions ...string) map[string]interface{} {
	qs := make([]interface{}, 0, len(questions))
	for _, q := range questions {
		qs = append(qs, q)
	}
	return map[string]interface{}{
		"questions":     qs,
		"detected_type": "normal",
	}
}

// ClarifierReadyPayload is the payload shape a clarifier completion
// returns when the request is already clear
func ClarifierReadyPayload(promptType string) map[string]interface{} {
	return map[string]interface{}{
		"questions":     []interface{}{},
		"detected_type": promptType,
	}
}

// GeneratorVariantPayload is the payload shape a generator completion
// returns for one persona
func GeneratorVariantPayload(name, content string) map[string]interface{} {
	return map[string]interface{}{
		"name":        name,
		"content":     content,
		"description": "Generated for testing",
	}
}

// EvaluatorPayload is the payload shape an evaluator completion returns
func EvaluatorPayload(overall float64, feedback string) map[string]interface{} {
	return map[string]interface{}{
		"scores": map[string]interface{}{
			"clarity":      overall,
			"specificity":  overall,
			"completeness": overall,
		},
		"overall_score": overall,
		"feedback":      feedback,
		"suggestions":   []interface{}{"tighten wording"},
	}
}

// JudgePayload is the payload shape a judge completion returns
func JudgePayload(winner, reason string) map[string]interface{} {
	return map[string]interface{}{
		"winner":     winner,
		"reason":     reason,
		"highlights": []interface{}{"most faithful to the intent"},
	}
}

// RefinerPayload is the payload shape a refiner completion returns
func RefinerPayload(contents ...string) map[string]interface{} {
	ids := []string{"A", "B", "C"}
	variations := make([]interface{}, 0, len(contents))
	for i, content := range contents {
		id := ids[i%len(ids)]
		variations = append(variations, map[string]interface{}{
			"id":      id,
			"name":    "Refined " + id,
			"content": content,
		})
	}
	return map[string]interface{}{
		"variations": variations,
	}
}

// ToJSON converts a fixture to JSON string
func ToJSON(fixture interface{}) string {
	data, _ := json.Marshal(fixture)
	return string(data)
}

// FromJSON parses JSON string to map
func FromJSON(jsonStr string) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal([]byte(jsonStr), &result)
	return result
}
