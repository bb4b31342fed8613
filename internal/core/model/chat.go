// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package model

// Role is the author of a chat turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// ChatMessage is one turn of a conversation about a video.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ValidateChatHistory enforces the chat contract: the history is not empty,
// every role is known, and the first and last turns come from the user.
// Strict user/assistant alternation is not required.
func ValidateChatHistory(messages []ChatMessage) error {
	const op = "validate-chat-history"
	if len(messages) == 0 {
		return NewError(KindMalformedChatHistory, op, "chat history is empty")
	}
	for i, m := range messages {
		if !m.Role.Valid() {
			return NewError(KindMalformedChatHistory, op, "message %d has unknown role %q", i, m.Role)
		}
	}
	if messages[0].Role != RoleUser {
		return NewError(KindMalformedChatHistory, op, "chat history must start with a user turn, got %q", messages[0].Role)
	}
	if last := messages[len(messages)-1]; last.Role != RoleUser {
		return NewError(KindMalformedChatHistory, op, "chat history must end with a user turn, got %q", last.Role)
	}
	return nil
}
