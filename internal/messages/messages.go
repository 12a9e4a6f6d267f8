// Package messages holds the fixed, user-facing strings the API returns.
// Clients match on these, so they are kept verbatim in Brazilian Portuguese.
package messages

const Welcome = "Olá, bem-vindo à Alunos API!"

// General
const (
	UnexpectedFields = "Campos inesperados encontrados."
)

// Students
const (
	StudentCreated   = "Aluno(a) criado com sucesso."
	StudentUpdated   = "Aluno(a) atualizado com sucesso."
	StudentDeleted   = "Aluno(a) deletado com sucesso."
	StudentNotFound  = "Aluno não encontrado."
	MissingNameOrAge = "Faltando nome ou idade."
)

// Courses
const (
	CourseCreated               = "Curso criado com sucesso."
	CourseUpdated               = "Curso atualizado com sucesso."
	CourseDeleted               = "Curso deletado com sucesso."
	CourseNotFound              = "Curso não encontrado."
	MaxStudentsLessThanEnrolled = "Número máximo de alunos não pode ser menor que o número de alunos matriculados."
	MissingNameOrMaxStudents    = "Faltando nome ou número máximo de alunos."
	MaxStudentsReached          = "Número máximo de alunos atingido neste curso."
)
