package entities

import "testing"

func TestNewConversation(t *testing.T) {
	conversation := NewConversation(7)

	if conversation.UserID != 7 {
		t.Errorf("Expected user ID 7, got %d", conversation.UserID)
	}

	if conversation.Status != ConversationActive {
		t.Errorf("Expected status %s, got %s", ConversationActive, conversation.Status)
	}

	conversation.Complete()
	if conversation.Status != ConversationCompleted {
		t.Errorf("Expected status %s, got %s", ConversationCompleted, conversation.Status)
	}
}

func TestTurnValidate(t *testing.T) {
	turn := NewInboundTurn(1, "hello", "wamid.A")
	if err := turn.Validate(); err != nil {
		t.Errorf("Expected valid turn, got %v", err)
	}

	if turn.Direction != DirectionInbound {
		t.Errorf("Expected direction %s, got %s", DirectionInbound, turn.Direction)
	}

	outbound := NewOutboundTurn(1, "hi there")
	if err := outbound.Validate(); err != nil {
		t.Errorf("Expected valid turn, got %v", err)
	}
	if outbound.ProviderMessageID != "" {
		t.Error("Expected outbound turn to have no provider message id")
	}

	missingContent := NewInboundTurn(1, "", "wamid.B")
	if err := missingContent.Validate(); err == nil {
		t.Error("Expected error for empty content")
	}

	missingConversation := NewOutboundTurn(0, "hi")
	if err := missingConversation.Validate(); err == nil {
		t.Error("Expected error for missing conversation id")
	}

	badDirection := &Turn{ConversationID: 1, Direction: "sideways", Content: "hi"}
	if err := badDirection.Validate(); err == nil {
		t.Error("Expected error for invalid direction")
	}
}
