package dto

// ── 题目模块 DTO ──

// QuestionRequest 创建 / 更新题目
type QuestionRequest struct {
	Text           string   `json:"text"            binding:"required,max=5000"`
	Type           string   `json:"type"            binding:"required,oneof=multiple_choice select short long true_false"`
	Points         int      `json:"points"          binding:"required,min=1,max=100"`
	Options        []string `json:"options"         binding:"omitempty,max=10,dive,max=500"`
	CorrectAnswers []string `json:"correct_answers" binding:"omitempty,max=10,dive,max=2000"`
}

// AnswerKeyRequest 批量替换答案
type AnswerKeyRequest struct {
	Answers []AnswerKeyItem `json:"answers" binding:"required,min=1,dive"`
}

// AnswerKeyItem 单题答案，按题号定位
type AnswerKeyItem struct {
	Number         int      `json:"number"          binding:"required,min=1"`
	CorrectAnswers []string `json:"correct_answers" binding:"required"`
}

// QuestionResponse 题目信息
type QuestionResponse struct {
	ID             string   `json:"id"`
	ExamID         string   `json:"exam_id"`
	Number         int      `json:"number"`
	Text           string   `json:"text"`
	Type           string   `json:"type"`
	Points         int      `json:"points"`
	Options        []string `json:"options"`
	CorrectAnswers []string `json:"correct_answers"`
}
