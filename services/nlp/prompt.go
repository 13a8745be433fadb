package nlp

import (
	"fmt"
	"strings"
	"time"

	"roomwise/models"
)

const extractionRules = `You are a workspace assistant that books meeting rooms.
Analyze the user's message and extract the intent and slots as JSON.
IMPORTANT: Re-derive the FULL current state from the whole conversation, not a delta.
- If the user provides new values, overwrite the old ones.
- If the user only changes one field, keep the other slots from the conversation.
- If the intent changes (e.g. from booking to cancelling), start the slots fresh for the new intent unless the user explicitly refers to the old ones.

Intents:
- BOOK_INTENT: user wants to book a room.
- MODIFY_INTENT: user wants to change an existing booking (move it, resize it, other room).
- CANCEL_INTENT: user wants to cancel a booking.
- QUERY_AVAILABILITY: user asks when rooms are free.
- ROOM_INFO: user asks what rooms exist or what a room offers.
- GREETING: user says hello.
- UNKNOWN: cannot understand.

Slot rules:
- attendees: integer. If implicit ("meeting", "we"), assume 2. "me", "alone": 1.
- start_time: ISO 8601 (YYYY-MM-DDTHH:MM:SS). Resolve relative dates against the current date.
- duration_minutes: positive integer. Omit if not specified, do NOT assume 60.
- equipment: list of strings, e.g. ["projector", "TV"]. Empty if none requested.
- room_name: name of a specific requested room, if any.
- title: short meeting title if the user gives one (e.g. "sprint review").
- excluded_rooms: list of room names the user does not want.
- booking_id: identifier of an existing booking the user refers to explicitly.
- scope: for CANCEL_INTENT only. "ALL", "LAST" or "SINGLE" (default).

Return ONLY valid JSON shaped like:
{"intent": "BOOK_INTENT", "slots": {"attendees": 5, "start_time": "2025-01-06T14:00:00", "duration_minutes": 30, "equipment": ["TV"]}}`

// buildExtractionPrompt assembles the full-state extraction prompt with the
// current clock and the transcript so far.
func buildExtractionPrompt(message string, transcript []models.DialogueTurn, now time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Current date/time: %s (%s).\n\n", now.Format("2006-01-02 15:04:05"), now.Weekday())
	sb.WriteString(extractionRules)
	sb.WriteString("\n\nConversation so far:\n")
	if len(transcript) == 0 {
		sb.WriteString("(none)\n")
	}
	for _, turn := range transcript {
		fmt.Fprintf(&sb, "%s: %s\n", turn.Role, turn.Content)
	}
	fmt.Fprintf(&sb, "\nuser: %s\n", message)
	return sb.String()
}

const generationRules = `You are Roomwise, a helpful and professional office assistant.
Write a short, natural response to the user based on the situation provided.
- Prepare them for the pending action if any (like confirming).
- Be concise but friendly.
- Do NOT invent information not present in the situation.
- Avoid markdown formatting unless needed for clarity.`

func buildGenerationPrompt(situation string) string {
	return generationRules + "\n\nSituation: " + situation
}
