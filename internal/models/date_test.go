package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateUnmarshalAcceptsDayAndTimestamp(t *testing.T) {
	var payload struct {
		Day       Date `json:"day"`
		Timestamp Date `json:"ts"`
		Missing   Date `json:"missing"`
		Empty     Date `json:"empty"`
	}
	err := json.Unmarshal([]byte(`{"day":"2024-03-05","ts":"2024-03-06T14:30:00.000Z","missing":null,"empty":""}`), &payload)
	require.NoError(t, err)

	assert.Equal(t, "2024-03-05", payload.Day.String())
	assert.Equal(t, "2024-03-06", payload.Timestamp.String())
	assert.True(t, payload.Missing.IsZero())
	assert.True(t, payload.Empty.IsZero())
}

func TestDateUnmarshalRejectsGarbage(t *testing.T) {
	var d Date
	assert.Error(t, json.Unmarshal([]byte(`"05/03/2024"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`20240305`), &d))
}

func TestDateMarshal(t *testing.T) {
	raw, err := json.Marshal(struct {
		A Date `json:"a"`
		B Date `json:"b"`
	}{A: NewDate(time.Date(2024, 1, 2, 23, 59, 0, 0, time.UTC))})
	require.NoError(t, err)

	assert.JSONEq(t, `{"a":"2024-01-02","b":null}`, string(raw))
}

func TestStudentDetailCloneIsDeep(t *testing.T) {
	original := &StudentDetail{
		ID:        1,
		Guardians: []GuardianLink{{ID: 9, UserID: 4}},
		DailyLogs: []json.RawMessage{json.RawMessage(`{"humor":"feliz"}`)},
	}

	clone := original.Clone()
	clone.Guardians[0].UserID = 99
	clone.DailyLogs[0][2] = 'X'

	assert.Equal(t, 4, original.Guardians[0].UserID)
	assert.JSONEq(t, `{"humor":"feliz"}`, string(original.DailyLogs[0]))
	assert.Nil(t, (*StudentDetail)(nil).Clone())
}

func TestCloneStudentsCopiesClassroom(t *testing.T) {
	in := []Student{{ID: 1, Classroom: &ClassroomRef{ID: 5, Name: "Maternal I"}}}

	out := CloneStudents(in)
	out[0].Classroom.Name = "changed"

	assert.Equal(t, "Maternal I", in[0].Classroom.Name)
	assert.Nil(t, CloneStudents(nil))
}

func TestSessionClaimsHasRole(t *testing.T) {
	claims := &SessionClaims{Roles: []UserRole{RoleTeacher, RoleAdmin}}

	assert.True(t, claims.HasRole(RoleAdmin))
	assert.False(t, (&SessionClaims{Role: RoleGuardian}).HasRole(RoleAdmin))
	assert.True(t, (&SessionClaims{Role: RoleAdmin}).HasRole(RoleAdmin))
	assert.False(t, (*SessionClaims)(nil).HasRole(RoleAdmin))
}

func TestNewDateKeepsLocalDayAtUTCMidnight(t *testing.T) {
	saoPaulo := time.FixedZone("BRT", -3*60*60)
	d := NewDate(time.Date(2024, 5, 10, 23, 30, 0, 0, saoPaulo))

	assert.Equal(t, "2024-05-10", d.String())
	assert.Equal(t, time.UTC, d.Location())
	assert.Equal(t, 0, d.Hour())
}
