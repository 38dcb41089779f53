package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ananth-NQI/restobot-backend/internal/models"
)

func TestAdvanceStartsReservation(t *testing.T) {
	sm := NewSessionManager(time.Hour)
	conv := newTestConversation(t, sm)

	turn := conv.Advance("U1", "whatsapp:+66891234567", "จองโต๊ะ")

	assert.Equal(t, IntentStartReservation, turn.Intent)
	assert.Equal(t, PromptName, turn.Reply)
	assert.Equal(t, models.Step(""), turn.From)
	assert.Equal(t, models.StepAskName, turn.To)

	session, ok := sm.Get("U1")
	require.True(t, ok)
	assert.Equal(t, models.StepAskName, session.Step)
	assert.Equal(t, models.ReservationFields{}, session.Fields)
	assert.Equal(t, "whatsapp:+66891234567", session.ReplyTo)
}

func TestAdvanceFullDialogue(t *testing.T) {
	sm := NewSessionManager(time.Hour)
	conv := newTestConversation(t, sm)

	conv.Advance("U1", "", "จองโต๊ะ")

	steps := []struct {
		text  string
		from  models.Step
		to    models.Step
		reply string
	}{
		{"Somchai", models.StepAskName, models.StepAskPhone, PromptPhone},
		{"0891234567", models.StepAskPhone, models.StepAskPeople, PromptPeople},
		{"4", models.StepAskPeople, models.StepAskDateTime, PromptDateTime},
	}
	for _, s := range steps {
		turn := conv.Advance("U1", "", s.text)
		assert.Equal(t, s.from, turn.From)
		assert.Equal(t, s.to, turn.To)
		assert.Equal(t, s.reply, turn.Reply)
		assert.Nil(t, turn.Completed)
	}

	final := conv.Advance("U1", "", "5 Sep 19:00")
	assert.Equal(t, models.StepAskDateTime, final.From)
	assert.Equal(t, models.Step(""), final.To)
	require.NotNil(t, final.Completed)
	assert.Equal(t, models.ReservationFields{
		Name: "Somchai", Phone: "0891234567", People: "4", DateTime: "5 Sep 19:00",
	}, *final.Completed)

	for _, want := range []string{"Somchai", "0891234567", "4", "5 Sep 19:00", "02-123-4567"} {
		assert.Contains(t, final.Reply, want)
	}
	assert.Equal(t,
		"✅ สรุปการจอง\nชื่อ: Somchai\nโทร: 0891234567\nจำนวน: 4 คน\nวันเวลา: 5 Sep 19:00\nทีมงานจะติดต่อยืนยันอีกครั้ง โทร 02-123-4567",
		final.Reply)

	_, ok := sm.Get("U1")
	assert.False(t, ok, "session must be removed on completion")
}

func TestAdvanceAfterCompletionRoutesAgain(t *testing.T) {
	sm := NewSessionManager(time.Hour)
	conv := newTestConversation(t, sm)

	for _, text := range []string{"จองโต๊ะ", "Somchai", "0891234567", "4", "5 Sep 19:00"} {
		conv.Advance("U1", "", text)
	}

	turn := conv.Advance("U1", "", "hello again")
	assert.Equal(t, HelpMessage, turn.Reply)
	assert.Equal(t, IntentUnrecognized, turn.Intent)
	assert.Equal(t, 0, sm.Count())
}

func TestAdvanceUnrecognizedCreatesNoSession(t *testing.T) {
	sm := NewSessionManager(time.Hour)
	conv := newTestConversation(t, sm)

	turn := conv.Advance("U1", "", "hello")

	assert.Equal(t, HelpMessage, turn.Reply)
	assert.Equal(t, 0, sm.Count())
}

func TestAdvanceInformationalIntent(t *testing.T) {
	sm := NewSessionManager(time.Hour)
	conv := newTestConversation(t, sm)

	turn := conv.Advance("U1", "", "เบอร์โทร")

	assert.Equal(t, IntentShowPhone, turn.Intent)
	assert.Equal(t, "02-123-4567", turn.Reply)
	assert.Equal(t, 0, sm.Count())
}

func TestAdvanceKeywordDuringDialogueFillsField(t *testing.T) {
	sm := NewSessionManager(time.Hour)
	conv := newTestConversation(t, sm)
	conv.Advance("U1", "", "จองโต๊ะ")

	turn := conv.Advance("U1", "", "เมนู")

	assert.Equal(t, PromptPhone, turn.Reply)
	session, _ := sm.Get("U1")
	assert.Equal(t, "เมนู", session.Fields.Name)
	assert.Equal(t, models.StepAskPhone, session.Step)
}

func TestAdvanceEmptyTextRepromptsCurrentStep(t *testing.T) {
	sm := NewSessionManager(time.Hour)
	conv := newTestConversation(t, sm)
	conv.Advance("U1", "", "จองโต๊ะ")
	conv.Advance("U1", "", "Somchai")

	turn := conv.Advance("U1", "", "   ")

	assert.Equal(t, PromptPhone, turn.Reply)
	assert.Equal(t, models.StepAskPhone, turn.To)
	session, _ := sm.Get("U1")
	assert.Equal(t, models.StepAskPhone, session.Step)
	assert.Empty(t, session.Fields.Phone)
}

func TestAdvanceUnknownStepFallsBack(t *testing.T) {
	sm := NewSessionManager(time.Hour)
	conv := newTestConversation(t, sm)

	broken := models.NewSession("U1", "", time.Now())
	broken.Step = models.Step("ask_email")
	broken.Fields.Name = "Somchai"
	sm.Put(broken)
	before, _ := sm.Get("U1")

	turn := conv.Advance("U1", "", "anything")

	assert.True(t, turn.Anomaly)
	assert.Equal(t, FallbackMessage, turn.Reply)
	assert.Equal(t, "anomaly", turn.Route())
	after, ok := sm.Get("U1")
	require.True(t, ok)
	assert.Equal(t, before, after, "session must be left untouched")
}

func TestAdvanceCancelKeyword(t *testing.T) {
	t.Run("disabled by default", func(t *testing.T) {
		sm := NewSessionManager(time.Hour)
		conv := newTestConversation(t, sm)
		conv.Advance("U1", "", "จองโต๊ะ")

		turn := conv.Advance("U1", "", "ยกเลิก")
		assert.False(t, turn.Cancelled)
		session, _ := sm.Get("U1")
		assert.Equal(t, "ยกเลิก", session.Fields.Name)
	})

	t.Run("enabled", func(t *testing.T) {
		sm := NewSessionManager(time.Hour)
		conv := newTestConversation(t, sm, WithCancelKeyword("ยกเลิก"))
		conv.Advance("U1", "", "จองโต๊ะ")
		conv.Advance("U1", "", "Somchai")

		turn := conv.Advance("U1", "", "ขอยกเลิกครับ")
		assert.True(t, turn.Cancelled)
		assert.Equal(t, CancelledMessage, turn.Reply)
		assert.Equal(t, models.StepAskPhone, turn.From)
		assert.Equal(t, 0, sm.Count())

		// Without a session the keyword is ordinary text.
		again := conv.Advance("U1", "", "ยกเลิก")
		assert.False(t, again.Cancelled)
		assert.Equal(t, HelpMessage, again.Reply)
	})
}

func TestAdvanceStrictValidators(t *testing.T) {
	sm := NewSessionManager(time.Hour)
	conv := newTestConversation(t, sm, StrictValidators(10)...)
	conv.Advance("U1", "", "จองโต๊ะ")
	conv.Advance("U1", "", "Somchai")

	bad := conv.Advance("U1", "", "call me")
	assert.Equal(t, models.StepAskPhone, bad.To)
	assert.NotEqual(t, PromptPeople, bad.Reply)

	conv.Advance("U1", "", "089-123-4567")
	tooMany := conv.Advance("U1", "", "40")
	assert.Equal(t, models.StepAskPeople, tooMany.To)

	ok := conv.Advance("U1", "", " 4 ")
	assert.Equal(t, models.StepAskDateTime, ok.To)

	session, _ := sm.Get("U1")
	assert.Equal(t, "089-123-4567", session.Fields.Phone)
	assert.Equal(t, "4", session.Fields.People)
}

func TestAdvanceExpiredSessionRoutesAgain(t *testing.T) {
	clock := newFakeClock()
	sm := NewSessionManager(30*time.Minute, WithClock(clock.Now))
	conv := newTestConversation(t, sm)

	conv.Advance("U1", "", "จองโต๊ะ")
	clock.Advance(31 * time.Minute)

	turn := conv.Advance("U1", "", "Somchai")
	assert.Equal(t, HelpMessage, turn.Reply)
	assert.Equal(t, 0, sm.Count())
}

func TestAdvanceUsersAreIsolated(t *testing.T) {
	sm := NewSessionManager(time.Hour)
	conv := newTestConversation(t, sm)

	conv.Advance("A", "", "จองโต๊ะ")
	conv.Advance("A", "", "Somchai")

	_, ok := sm.Get("B")
	assert.False(t, ok)

	conv.Advance("B", "", "จองโต๊ะ")
	conv.Advance("B", "", "Malee")

	a, _ := sm.Get("A")
	b, _ := sm.Get("B")
	assert.Equal(t, "Somchai", a.Fields.Name)
	assert.Equal(t, "Malee", b.Fields.Name)
	assert.Equal(t, models.StepAskPhone, a.Step)
	assert.Equal(t, models.StepAskPhone, b.Step)
}

func TestAdvanceSameUserConcurrentTurnsSerialize(t *testing.T) {
	for run := 0; run < 20; run++ {
		sm := NewSessionManager(time.Hour)
		conv := newTestConversation(t, sm)
		conv.Advance("U1", "", "จองโต๊ะ")

		var wg sync.WaitGroup
		turns := make([]Turn, 2)
		for i, text := range []string{"first", "second"} {
			wg.Add(1)
			go func(i int, text string) {
				defer wg.Done()
				turns[i] = conv.Advance("U1", "", text)
			}(i, text)
		}
		wg.Wait()

		froms := []models.Step{turns[0].From, turns[1].From}
		assert.ElementsMatch(t, []models.Step{models.StepAskName, models.StepAskPhone}, froms)

		session, ok := sm.Get("U1")
		require.True(t, ok)
		assert.Equal(t, models.StepAskPeople, session.Step)
		assert.ElementsMatch(t, []string{"first", "second"}, []string{session.Fields.Name, session.Fields.Phone})
	}
}

func TestAdvanceManyUsersConcurrently(t *testing.T) {
	sm := NewSessionManager(time.Hour)
	conv := newTestConversation(t, sm)

	users := []string{"U1", "U2", "U3", "U4", "U5", "U6", "U7", "U8"}
	var wg sync.WaitGroup
	completed := make(chan *models.ReservationFields, len(users))
	for _, u := range users {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			var last Turn
			for _, text := range []string{"จองโต๊ะ", u, "0891234567", "2", "tonight"} {
				last = conv.Advance(u, "", text)
			}
			completed <- last.Completed
		}(u)
	}
	wg.Wait()
	close(completed)

	names := []string{}
	for fields := range completed {
		require.NotNil(t, fields)
		names = append(names, fields.Name)
	}
	assert.ElementsMatch(t, users, names)
	assert.Equal(t, 0, sm.Count())
}

func TestTurnRoute(t *testing.T) {
	assert.Equal(t, "show_menu", Turn{Intent: IntentShowMenu}.Route())
	assert.Equal(t, "ask_phone", Turn{From: models.StepAskPhone}.Route())
	assert.Equal(t, "cancelled", Turn{From: models.StepAskPhone, Cancelled: true}.Route())
}

func TestAdvanceLastStepWithMissingFieldsFallsBack(t *testing.T) {
	sm := NewSessionManager(time.Hour)
	conv := newTestConversation(t, sm)

	broken := models.NewSession("U1", "", time.Now())
	broken.Step = models.StepAskDateTime
	broken.Fields = models.ReservationFields{Name: "Somchai", People: "4"}
	sm.Put(broken)
	before, _ := sm.Get("U1")

	turn := conv.Advance("U1", "", "5 Sep 19:00")

	assert.True(t, turn.Anomaly)
	assert.Nil(t, turn.Completed)
	assert.Equal(t, FallbackMessage, turn.Reply)
	after, ok := sm.Get("U1")
	require.True(t, ok)
	assert.Equal(t, before, after, "session must be left untouched")
}
