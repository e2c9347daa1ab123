package model

// 题型
const (
	QuestionTypeMultipleChoice = "multiple_choice" // 单选
	QuestionTypeSelect         = "select"          // 多选
	QuestionTypeShort          = "short"
	QuestionTypeLong           = "long"
	QuestionTypeTrueFalse      = "true_false"
)

// TrueFalseOptions 判断题固定选项
var TrueFalseOptions = StringArray{"True", "False"}

// Question 题目表，对应 questions
type Question struct {
	QuestionID     string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"question_id"`
	ExamID         string      `gorm:"type:uuid;not null;index"                       json:"exam_id"`
	Number         int         `gorm:"not null"                                       json:"number"`
	Text           string      `gorm:"type:text;not null"                             json:"text"`
	Type           string      `gorm:"type:varchar(20);not null"                      json:"type"`
	Points         int         `gorm:"not null;default:1"                             json:"points"`
	Options        StringArray `gorm:"type:text[];not null;default:'{}'"              json:"options"`
	CorrectAnswers StringArray `gorm:"type:text[];not null;default:'{}'"              json:"correct_answers"`
	BaseModel
}

// TableName 指定表名
func (Question) TableName() string { return "questions" }

// HasOptions 该题型是否需要选项
func HasOptions(questionType string) bool {
	switch questionType {
	case QuestionTypeMultipleChoice, QuestionTypeSelect, QuestionTypeTrueFalse:
		return true
	default:
		return false
	}
}
