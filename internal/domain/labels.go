package domain

// Display labels used by the dashboards and the results table.
const (
	DeletedQuizTitle = "امتحان محذوف"
	UnknownGrade     = "غير محدد"
)

var subjectNames = map[Subject]string{
	SubjectPureMath:   "رياضيات بحتة",
	SubjectStatistics: "استاتيكا",
}

var gradeNames = map[Grade]string{
	GradeFirstSecondary:  "أولى ثانوي",
	GradeSecondSecondary: "تانية ثانوي",
}

// resultGradeNames is the formal wording used in the results table.
var resultGradeNames = map[Grade]string{
	GradeFirstSecondary:  "الأول الثانوي",
	GradeSecondSecondary: "الثاني الثانوي",
}

func SubjectName(s Subject) string {
	if name, ok := subjectNames[s]; ok {
		return name
	}
	return string(s)
}

func GradeName(g Grade) string {
	if name, ok := gradeNames[g]; ok {
		return name
	}
	return string(g)
}

// ResultGradeLabel falls back to UnknownGrade for deleted quizzes.
func ResultGradeLabel(g Grade) string {
	if name, ok := resultGradeNames[g]; ok {
		return name
	}
	return UnknownGrade
}
