package models

import "encoding/json"

// ClassroomRef is the classroom summary embedded in student listings.
type ClassroomRef struct {
	ID   int    `json:"id"`
	Name string `json:"nome"`
}

// Classroom is the classroom summary embedded in a student detail.
type Classroom struct {
	ID    int    `json:"id"`
	Name  string `json:"nome"`
	Shift string `json:"turno"`
}

// Student is the listing snapshot of an enrolled learner.
type Student struct {
	ID             int           `json:"id"`
	Name           string        `json:"nome"`
	Email          string        `json:"email"`
	EnrollmentCode string        `json:"matricula"`
	Classroom      *ClassroomRef `json:"turma,omitempty"`
}

// UserSummary describes the user account behind a guardian link.
type UserSummary struct {
	ID    int    `json:"id"`
	Name  string `json:"nome"`
	Email string `json:"email"`
}

// GuardianLink connects a student to a responsible user account.
type GuardianLink struct {
	ID        int         `json:"id"`
	StudentID int         `json:"alunoId"`
	UserID    int         `json:"usuarioId"`
	User      UserSummary `json:"usuario"`
}

// StudentDetail is the full record shown on the student page.
// DailyLogs is kept as raw JSON until the diary schema is settled upstream.
type StudentDetail struct {
	ID          int               `json:"id"`
	Name        string            `json:"nome"`
	BirthDate   Date              `json:"dataNasc"`
	ClassroomID int               `json:"turmaId"`
	Active      bool              `json:"isAtivo"`
	Tuition     float64           `json:"mensalidade"`
	Classroom   Classroom         `json:"turma"`
	Guardians   []GuardianLink    `json:"responsaveis"`
	DailyLogs   []json.RawMessage `json:"diario"`
}

// CreateStudentRequest is the payload accepted by POST /alunos.
type CreateStudentRequest struct {
	Name        string   `json:"nome" validate:"required"`
	BirthDate   Date     `json:"dataNasc" validate:"required"`
	ClassroomID int      `json:"turmaId" validate:"required,gt=0"`
	Tuition     *float64 `json:"mensalidade,omitempty" validate:"omitempty,gte=0"`
}

// AddGuardianRequest links a user as guardian of a student.
type AddGuardianRequest struct {
	UserID int `json:"usuarioId" validate:"required,gt=0"`
}

// DiaryRef points at an existing daily-log entry.
type DiaryRef struct {
	ID int `json:"id"`
}

// DiaryCheckResult answers whether a student has a daily log on a given day.
type DiaryCheckResult struct {
	StudentID int       `json:"alunoId"`
	Date      Date      `json:"data"`
	HasEntry  bool      `json:"temDiario"`
	Entry     *DiaryRef `json:"diario"`
}

// Clone returns a deep copy so cached snapshots never share backing arrays.
func (d *StudentDetail) Clone() *StudentDetail {
	if d == nil {
		return nil
	}
	out := *d
	if d.Guardians != nil {
		out.Guardians = append([]GuardianLink(nil), d.Guardians...)
	}
	if d.DailyLogs != nil {
		out.DailyLogs = make([]json.RawMessage, len(d.DailyLogs))
		for i, entry := range d.DailyLogs {
			out.DailyLogs[i] = append(json.RawMessage(nil), entry...)
		}
	}
	return &out
}

// CloneStudents copies a student slice including the embedded classroom pointers.
func CloneStudents(in []Student) []Student {
	if in == nil {
		return nil
	}
	out := make([]Student, len(in))
	for i, s := range in {
		out[i] = s
		if s.Classroom != nil {
			ref := *s.Classroom
			out[i].Classroom = &ref
		}
	}
	return out
}
