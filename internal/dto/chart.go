package dto

import "time"

// NoClassroomLabel groups students that are not enrolled in any classroom.
const NoClassroomLabel = "Sem turma"

// ClassroomCount is one bar of the students-per-classroom chart.
type ClassroomCount struct {
	ClassroomID *int   `json:"turmaId"`
	Classroom   string `json:"turma"`
	Count       int    `json:"quantidade"`
}

// StudentsPerClassroomChart is the dataset behind "Quantidade de Alunos por Turma".
type StudentsPerClassroomChart struct {
	Total       int              `json:"total"`
	Items       []ClassroomCount `json:"items"`
	GeneratedAt time.Time        `json:"generatedAt"`
}
