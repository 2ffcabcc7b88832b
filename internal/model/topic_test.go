package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSanitizeTopic(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "methods", "methods"},
		{"uppercase", "Linear Algebra", "linear-algebra"},
		{"dots replaced", "ch.1.intro", "ch-1-intro"},
		{"dollar replaced", "$costs", "costs"},
		{"runs collapse", "a . . b", "a-b"},
		{"surrounding noise trimmed", "  .intro.  ", "intro"},
		{"control chars", "top\x00ic", "top-ic"},
		{"empty", "   ", ""},
		{"only reserved", "...", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SanitizeTopic(tc.in))
		})
	}
}

func TestSanitizeTopicIdempotent(t *testing.T) {
	inputs := []string{"Intro.Methods", "a b c", "$x.y", "plain"}
	for _, in := range inputs {
		once := SanitizeTopic(in)
		assert.Equal(t, once, SanitizeTopic(once), "sanitizing twice must not change the key for %q", in)
	}
}

func TestRoomTopics(t *testing.T) {
	room := &Room{TopicQuestionCount: map[string]int{"methods": 2, "intro": 0}}
	assert.Equal(t, []string{"intro", "methods"}, room.Topics())

	empty := &Room{}
	assert.Nil(t, empty.Topics())
}

func TestUserHasRoom(t *testing.T) {
	u := &User{}
	id := primitive.NewObjectID()
	assert.False(t, u.HasRoom(id))
	u.Rooms = append(u.Rooms, id)
	assert.True(t, u.HasRoom(id))
}
