package entities

import (
	"testing"
)

func TestNewUser(t *testing.T) {
	phone := "5511999990000"
	user := NewUser(phone)

	if user.Phone != phone {
		t.Errorf("Expected phone %s, got %s", phone, user.Phone)
	}

	if user.State != StateNew {
		t.Errorf("Expected state %s, got %s", StateNew, user.State)
	}

	if user.Level != "" {
		t.Errorf("Expected no level, got %s", user.Level)
	}

	if user.CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set")
	}
}

func TestNextState(t *testing.T) {
	cases := []struct {
		name    string
		current UserState
		input   StateInput
		want    UserState
	}{
		{"new user message starts evaluation", StateNew, InputMessage, StateEvaluating},
		{"evaluating stays on plain message", StateEvaluating, InputMessage, StateEvaluating},
		{"evaluation completes into lessons", StateEvaluating, InputLevelAssessed, StateActiveLesson},
		{"lesson issues exercise", StateActiveLesson, InputExerciseSent, StateFeedback},
		{"lesson stays on plain message", StateActiveLesson, InputMessage, StateActiveLesson},
		{"feedback returns to lesson", StateFeedback, InputFeedbackGiven, StateActiveLesson},
		{"feedback stays on plain message", StateFeedback, InputMessage, StateFeedback},
		{"unknown input keeps state", StateNew, InputFeedbackGiven, StateNew},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NextState(tc.current, tc.input)
			if got != tc.want {
				t.Errorf("NextState(%s, %s) = %s, want %s", tc.current, tc.input, got, tc.want)
			}
		})
	}
}

func TestUserAssessed(t *testing.T) {
	user := NewUser("5511999990000")
	user.Advance(InputMessage)

	if user.State != StateEvaluating {
		t.Fatalf("Expected state %s, got %s", StateEvaluating, user.State)
	}

	user.Assessed(LevelIntermediate, `{"weekly_plans":[]}`)

	if user.State != StateActiveLesson {
		t.Errorf("Expected state %s, got %s", StateActiveLesson, user.State)
	}

	if user.Level != LevelIntermediate {
		t.Errorf("Expected level %s, got %s", LevelIntermediate, user.Level)
	}

	if user.StudyPlan == "" {
		t.Error("Expected study plan to be set")
	}
}

func TestUserValidate(t *testing.T) {
	user := NewUser("5511999990000")
	if err := user.Validate(); err != nil {
		t.Errorf("Expected valid user, got %v", err)
	}

	user.Phone = ""
	if err := user.Validate(); err == nil {
		t.Error("Expected error for missing phone")
	}

	user.Phone = "5511999990000"
	user.State = "bogus"
	if err := user.Validate(); err == nil {
		t.Error("Expected error for invalid state")
	}
}

func TestParseEnglishLevel(t *testing.T) {
	level, err := ParseEnglishLevel("upper_intermediate")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if level != LevelUpperIntermediate {
		t.Errorf("Expected %s, got %s", LevelUpperIntermediate, level)
	}

	if _, err := ParseEnglishLevel("fluent"); err == nil {
		t.Error("Expected error for unknown level")
	}
}
