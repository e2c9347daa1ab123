package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"routinetest/internal/model"
	"routinetest/internal/repository"
	pkgerrors "routinetest/pkg/errors"
)

// ── 测试用 Repository 聚合 ──

type mockRepos struct {
	user         *mockUserRepo
	academicYear *mockAcademicYearRepo
	curriculum   *mockCurriculumRepo
	class        *mockClassRepo
	mapping      *mockMappingRepo
	exam         *mockExamRepo
	question     *mockQuestionRepo
	session      *mockSessionRepo
	teacher      *mockTeacherRepo
	student      *mockStudentRepo
}

func newMockRepos() (*repository.Repository, *mockRepos) {
	m := &mockRepos{
		user:         newMockUserRepo(),
		academicYear: newMockAcademicYearRepo(),
		curriculum:   newMockCurriculumRepo(),
		class:        newMockClassRepo(),
		mapping:      newMockMappingRepo(),
		exam:         newMockExamRepo(),
		question:     newMockQuestionRepo(),
		session:      newMockSessionRepo(),
		teacher:      newMockTeacherRepo(),
		student:      newMockStudentRepo(),
	}
	repo := &repository.Repository{
		User:         m.user,
		AcademicYear: m.academicYear,
		Curriculum:   m.curriculum,
		Class:        m.class,
		Mapping:      m.mapping,
		Exam:         m.exam,
		Question:     m.question,
		Session:      m.session,
		Teacher:      m.teacher,
		Student:      m.student,
	}
	return repo, m
}

var mockSeq int

func nextID(prefix string) string {
	mockSeq++
	return fmt.Sprintf("%s-%d", prefix, mockSeq)
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User // key: user_id
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = "user-" + user.Username
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) CountByRole(_ context.Context, role string) (int64, error) {
	var n int64
	for _, u := range m.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

// ── Mock AcademicYearRepository ──

type mockAcademicYearRepo struct {
	years map[string]*model.AcademicYear // key: academic_year_id
}

func newMockAcademicYearRepo() *mockAcademicYearRepo {
	return &mockAcademicYearRepo{years: make(map[string]*model.AcademicYear)}
}

func (m *mockAcademicYearRepo) Create(_ context.Context, y *model.AcademicYear) error {
	if y.AcademicYearID == "" {
		y.AcademicYearID = "ay-" + y.Year
	}
	if y.Version == 0 {
		y.Version = 1
	}
	m.years[y.AcademicYearID] = y
	return nil
}

func (m *mockAcademicYearRepo) GetByID(_ context.Context, id string) (*model.AcademicYear, error) {
	if y, ok := m.years[id]; ok {
		return y, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAcademicYearRepo) GetByYear(_ context.Context, year string) (*model.AcademicYear, error) {
	for _, y := range m.years {
		if y.Year == year {
			return y, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAcademicYearRepo) GetCurrent(_ context.Context) (*model.AcademicYear, error) {
	for _, y := range m.years {
		if y.IsCurrent {
			return y, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAcademicYearRepo) List(_ context.Context) ([]model.AcademicYear, error) {
	result := make([]model.AcademicYear, 0, len(m.years))
	for _, y := range m.years {
		result = append(result, *y)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Year > result[j].Year })
	return result, nil
}

func (m *mockAcademicYearRepo) Update(_ context.Context, y *model.AcademicYear) error {
	stored, ok := m.years[y.AcademicYearID]
	if !ok || stored.Version != y.Version {
		return pkgerrors.ErrOptimisticLock
	}
	y.Version++
	m.years[y.AcademicYearID] = y
	return nil
}

func (m *mockAcademicYearRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.years, id)
	return nil
}

func (m *mockAcademicYearRepo) ClearCurrent(_ context.Context) error {
	for _, y := range m.years {
		y.IsCurrent = false
	}
	return nil
}

// ── Mock CurriculumRepository ──

type mockCurriculumRepo struct {
	programs    map[string]*model.Program
	subPrograms map[string]*model.SubProgram
	levels      map[string]*model.CurriculumLevel
	references  map[string]int64 // level_id → 引用数
	treeCalls   int
}

func newMockCurriculumRepo() *mockCurriculumRepo {
	return &mockCurriculumRepo{
		programs:    make(map[string]*model.Program),
		subPrograms: make(map[string]*model.SubProgram),
		levels:      make(map[string]*model.CurriculumLevel),
		references:  make(map[string]int64),
	}
}

// seed 录入 program → subprogram → level，返回 level
func (m *mockCurriculumRepo) seed(programID, programName, subID, subName string, order, levelNumber int) *model.CurriculumLevel {
	p, ok := m.programs[programID]
	if !ok {
		p = &model.Program{ProgramID: programID, Code: programName, Name: programName, SortOrder: len(m.programs)}
		m.programs[programID] = p
	}
	sp, ok := m.subPrograms[subID]
	if !ok {
		sp = &model.SubProgram{SubProgramID: subID, ProgramID: programID, Name: subName, SortOrder: order, Program: p}
		m.subPrograms[subID] = sp
	}
	l := &model.CurriculumLevel{
		LevelID:      fmt.Sprintf("%s-L%d", subID, levelNumber),
		SubProgramID: subID,
		LevelNumber:  levelNumber,
		SortOrder:    levelNumber,
		SubProgram:   sp,
	}
	m.levels[l.LevelID] = l
	return l
}

func (m *mockCurriculumRepo) ListPrograms(_ context.Context) ([]model.Program, error) {
	result := make([]model.Program, 0, len(m.programs))
	for _, p := range m.programs {
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].SortOrder != result[j].SortOrder {
			return result[i].SortOrder < result[j].SortOrder
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

func (m *mockCurriculumRepo) GetProgram(_ context.Context, id string) (*model.Program, error) {
	if p, ok := m.programs[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCurriculumRepo) CreateProgram(_ context.Context, p *model.Program) error {
	if p.ProgramID == "" {
		p.ProgramID = nextID("prog")
	}
	m.programs[p.ProgramID] = p
	return nil
}

func (m *mockCurriculumRepo) UpdateProgram(_ context.Context, p *model.Program) error {
	m.programs[p.ProgramID] = p
	return nil
}

func (m *mockCurriculumRepo) DeleteProgram(_ context.Context, id string) error {
	delete(m.programs, id)
	return nil
}

func (m *mockCurriculumRepo) ListSubPrograms(_ context.Context, programID string) ([]model.SubProgram, error) {
	var result []model.SubProgram
	for _, sp := range m.subPrograms {
		if sp.ProgramID == programID {
			result = append(result, *sp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SortOrder < result[j].SortOrder })
	return result, nil
}

func (m *mockCurriculumRepo) GetSubProgram(_ context.Context, id string) (*model.SubProgram, error) {
	if sp, ok := m.subPrograms[id]; ok {
		return sp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCurriculumRepo) CreateSubProgram(_ context.Context, sp *model.SubProgram) error {
	if sp.SubProgramID == "" {
		sp.SubProgramID = nextID("sub")
	}
	m.subPrograms[sp.SubProgramID] = sp
	return nil
}

func (m *mockCurriculumRepo) UpdateSubProgram(_ context.Context, sp *model.SubProgram) error {
	m.subPrograms[sp.SubProgramID] = sp
	return nil
}

func (m *mockCurriculumRepo) DeleteSubProgram(_ context.Context, id string) error {
	delete(m.subPrograms, id)
	return nil
}

func (m *mockCurriculumRepo) ListLevels(_ context.Context, subProgramID string) ([]model.CurriculumLevel, error) {
	var result []model.CurriculumLevel
	for _, l := range m.levels {
		if l.SubProgramID == subProgramID {
			result = append(result, *l)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SortOrder < result[j].SortOrder })
	return result, nil
}

func (m *mockCurriculumRepo) GetLevel(_ context.Context, id string) (*model.CurriculumLevel, error) {
	if l, ok := m.levels[id]; ok {
		return l, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCurriculumRepo) CreateLevel(_ context.Context, l *model.CurriculumLevel) error {
	if l.LevelID == "" {
		l.LevelID = nextID("lvl")
	}
	m.levels[l.LevelID] = l
	return nil
}

func (m *mockCurriculumRepo) UpdateLevel(_ context.Context, l *model.CurriculumLevel) error {
	m.levels[l.LevelID] = l
	return nil
}

func (m *mockCurriculumRepo) DeleteLevel(_ context.Context, id string) error {
	delete(m.levels, id)
	return nil
}

func (m *mockCurriculumRepo) CountSubPrograms(_ context.Context, programID string) (int64, error) {
	var n int64
	for _, sp := range m.subPrograms {
		if sp.ProgramID == programID {
			n++
		}
	}
	return n, nil
}

func (m *mockCurriculumRepo) CountLevels(_ context.Context, subProgramID string) (int64, error) {
	var n int64
	for _, l := range m.levels {
		if l.SubProgramID == subProgramID {
			n++
		}
	}
	return n, nil
}

func (m *mockCurriculumRepo) CountLevelReferences(_ context.Context, levelID string) (int64, error) {
	return m.references[levelID], nil
}

func (m *mockCurriculumRepo) Tree(ctx context.Context) ([]model.Program, error) {
	m.treeCalls++
	programs, _ := m.ListPrograms(ctx)
	for i := range programs {
		subs, _ := m.ListSubPrograms(ctx, programs[i].ProgramID)
		for j := range subs {
			subs[j].Levels, _ = m.ListLevels(ctx, subs[j].SubProgramID)
		}
		programs[i].SubPrograms = subs
	}
	return programs, nil
}

// ── Mock ClassRepository ──

type mockClassRepo struct {
	classes map[string]*model.Class
}

func newMockClassRepo() *mockClassRepo {
	return &mockClassRepo{classes: make(map[string]*model.Class)}
}

func (m *mockClassRepo) Create(_ context.Context, c *model.Class) error {
	m.classes[c.ClassCode] = c
	return nil
}

func (m *mockClassRepo) GetByCode(_ context.Context, code string) (*model.Class, error) {
	if c, ok := m.classes[code]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockClassRepo) List(_ context.Context, activeOnly bool) ([]model.Class, error) {
	var result []model.Class
	for _, c := range m.classes {
		if activeOnly && !c.IsActive {
			continue
		}
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ClassCode < result[j].ClassCode })
	return result, nil
}

func (m *mockClassRepo) Update(_ context.Context, c *model.Class) error {
	m.classes[c.ClassCode] = c
	return nil
}

func (m *mockClassRepo) Delete(_ context.Context, code string, _ string) error {
	delete(m.classes, code)
	return nil
}

func (m *mockClassRepo) UpdateCurriculumDisplay(_ context.Context, code string, levelID *string, program, subProgram, level string) error {
	c, ok := m.classes[code]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.CurriculumLevelID = levelID
	c.Program = program
	c.SubProgram = subProgram
	c.Level = level
	return nil
}

// ── Mock MappingRepository ──

type mockMappingRepo struct {
	mu       sync.Mutex
	mappings map[string]*model.CurriculumMapping // key: class_code|year
	saves    []model.CurriculumMapping           // 每次 Create/Update 的快照
}

func newMockMappingRepo() *mockMappingRepo {
	return &mockMappingRepo{mappings: make(map[string]*model.CurriculumMapping)}
}

func mappingKey(classCode, year string) string { return classCode + "|" + year }

func (m *mockMappingRepo) Get(_ context.Context, classCode, year string) (*model.CurriculumMapping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mp, ok := m.mappings[mappingKey(classCode, year)]; ok {
		cp := *mp
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockMappingRepo) ListByYear(_ context.Context, year string) ([]model.CurriculumMapping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.CurriculumMapping
	for _, mp := range m.mappings {
		if mp.AcademicYear == year {
			result = append(result, *mp)
		}
	}
	return result, nil
}

func (m *mockMappingRepo) Create(_ context.Context, mp *model.CurriculumMapping) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mp.MappingID == "" {
		mp.MappingID = "map-" + mappingKey(mp.ClassCode, mp.AcademicYear)
	}
	if mp.Version == 0 {
		mp.Version = 1
	}
	cp := *mp
	m.mappings[mappingKey(mp.ClassCode, mp.AcademicYear)] = &cp
	m.saves = append(m.saves, cp)
	return nil
}

func (m *mockMappingRepo) Update(_ context.Context, mp *model.CurriculumMapping) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.mappings[mappingKey(mp.ClassCode, mp.AcademicYear)]
	if !ok || stored.Version != mp.Version {
		return pkgerrors.ErrOptimisticLock
	}
	mp.Version++
	cp := *mp
	m.mappings[mappingKey(mp.ClassCode, mp.AcademicYear)] = &cp
	m.saves = append(m.saves, cp)
	return nil
}

func (m *mockMappingRepo) Delete(_ context.Context, classCode, year string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := mappingKey(classCode, year)
	if _, ok := m.mappings[key]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.mappings, key)
	return nil
}

func (m *mockMappingRepo) savedSnapshots() []model.CurriculumMapping {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.CurriculumMapping(nil), m.saves...)
}

// ── Mock ExamRepository ──

type mockExamRepo struct {
	exams   map[string]*model.Exam
	links   []model.ClassExam
	deleted map[string]bool
	locked  []string
}

func newMockExamRepo() *mockExamRepo {
	return &mockExamRepo{exams: make(map[string]*model.Exam), deleted: make(map[string]bool)}
}

func (m *mockExamRepo) Create(_ context.Context, e *model.Exam) error {
	if e.ExamID == "" {
		e.ExamID = nextID("exam")
	}
	if e.Version == 0 {
		e.Version = 1
	}
	m.exams[e.ExamID] = e
	return nil
}

func (m *mockExamRepo) GetByID(_ context.Context, id string) (*model.Exam, error) {
	if e, ok := m.exams[id]; ok && !m.deleted[id] {
		cp := *e
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockExamRepo) List(_ context.Context, f repository.ExamFilter, offset, limit int) ([]model.Exam, int64, error) {
	var result []model.Exam
	for id, e := range m.exams {
		if m.deleted[id] {
			continue
		}
		if f.ExamType != "" && e.ExamType != f.ExamType {
			continue
		}
		if f.Timeslot != "" && e.Timeslot != f.Timeslot {
			continue
		}
		if f.AcademicYear != "" && e.AcademicYear != f.AcademicYear {
			continue
		}
		if f.Keyword != "" && !strings.Contains(e.Name, f.Keyword) {
			continue
		}
		result = append(result, *e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	total := int64(len(result))
	if limit > 0 {
		if offset > len(result) {
			offset = len(result)
		}
		end := offset + limit
		if end > len(result) {
			end = len(result)
		}
		result = result[offset:end]
	}
	return result, total, nil
}

func (m *mockExamRepo) Update(_ context.Context, e *model.Exam) error {
	stored, ok := m.exams[e.ExamID]
	if !ok || stored.Version != e.Version {
		return pkgerrors.ErrOptimisticLock
	}
	e.Version++
	cp := *e
	m.exams[e.ExamID] = &cp
	return nil
}

func (m *mockExamRepo) Delete(_ context.Context, id string, _ string) error {
	m.deleted[id] = true
	return nil
}

func (m *mockExamRepo) SetQuestionCount(_ context.Context, id string, count int) error {
	if e, ok := m.exams[id]; ok {
		e.QuestionCount = count
	}
	return nil
}

func (m *mockExamRepo) LockForUpdate(_ context.Context, id string) error {
	if _, ok := m.exams[id]; !ok || m.deleted[id] {
		return gorm.ErrRecordNotFound
	}
	m.locked = append(m.locked, id)
	return nil
}

func (m *mockExamRepo) CreateLink(_ context.Context, link *model.ClassExam) error {
	m.links = append(m.links, *link)
	return nil
}

func (m *mockExamRepo) GetLink(_ context.Context, examID, classCode, timeslot, year string) (*model.ClassExam, error) {
	for _, l := range m.links {
		if l.ExamID == examID && l.ClassCode == classCode && l.Timeslot == timeslot && l.AcademicYear == year {
			cp := l
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockExamRepo) ListLinks(_ context.Context, examID string) ([]model.ClassExam, error) {
	var result []model.ClassExam
	for _, l := range m.links {
		if l.ExamID == examID {
			result = append(result, l)
		}
	}
	return result, nil
}

func (m *mockExamRepo) DeleteLink(_ context.Context, examID, classCode, timeslot, year string) (int64, error) {
	var kept []model.ClassExam
	var n int64
	for _, l := range m.links {
		if l.ExamID == examID && l.ClassCode == classCode && l.Timeslot == timeslot &&
			(year == "" || l.AcademicYear == year) {
			n++
			continue
		}
		kept = append(kept, l)
	}
	m.links = kept
	return n, nil
}

func (m *mockExamRepo) DeleteLinks(_ context.Context, examID string) error {
	var kept []model.ClassExam
	for _, l := range m.links {
		if l.ExamID != examID {
			kept = append(kept, l)
		}
	}
	m.links = kept
	return nil
}

func (m *mockExamRepo) CountLinks(ctx context.Context, examID string) (int64, error) {
	links, _ := m.ListLinks(ctx, examID)
	return int64(len(links)), nil
}

// ── Mock QuestionRepository ──

type mockQuestionRepo struct {
	questions map[string]*model.Question
}

func newMockQuestionRepo() *mockQuestionRepo {
	return &mockQuestionRepo{questions: make(map[string]*model.Question)}
}

func (m *mockQuestionRepo) ListByExam(_ context.Context, examID string) ([]model.Question, error) {
	var result []model.Question
	for _, q := range m.questions {
		if q.ExamID == examID {
			result = append(result, *q)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Number < result[j].Number })
	return result, nil
}

func (m *mockQuestionRepo) GetByID(_ context.Context, id string) (*model.Question, error) {
	if q, ok := m.questions[id]; ok {
		cp := *q
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockQuestionRepo) Create(_ context.Context, q *model.Question) error {
	if q.QuestionID == "" {
		q.QuestionID = nextID("q")
	}
	cp := *q
	m.questions[q.QuestionID] = &cp
	return nil
}

func (m *mockQuestionRepo) BatchCreate(ctx context.Context, qs []model.Question) error {
	for i := range qs {
		if err := m.Create(ctx, &qs[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockQuestionRepo) Update(_ context.Context, q *model.Question) error {
	cp := *q
	m.questions[q.QuestionID] = &cp
	return nil
}

func (m *mockQuestionRepo) Delete(_ context.Context, id string) error {
	delete(m.questions, id)
	return nil
}

func (m *mockQuestionRepo) CountByExam(ctx context.Context, examID string) (int64, error) {
	qs, _ := m.ListByExam(ctx, examID)
	return int64(len(qs)), nil
}

func (m *mockQuestionRepo) ShiftNumbers(_ context.Context, examID string, after int) error {
	for _, q := range m.questions {
		if q.ExamID == examID && q.Number > after {
			q.Number--
		}
	}
	return nil
}

// ── Mock SessionRepository ──

type mockSessionRepo struct {
	sessions map[string]*model.ExamSession
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[string]*model.ExamSession)}
}

func (m *mockSessionRepo) Create(_ context.Context, s *model.ExamSession) error {
	if s.SessionID == "" {
		s.SessionID = nextID("sess")
	}
	cp := *s
	m.sessions[s.SessionID] = &cp
	return nil
}

func (m *mockSessionRepo) GetByID(_ context.Context, id string) (*model.ExamSession, error) {
	if s, ok := m.sessions[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSessionRepo) List(_ context.Context, f repository.SessionFilter) ([]model.ExamSession, error) {
	var result []model.ExamSession
	for _, s := range m.sessions {
		if f.ClassCode != "" && s.ClassCode != f.ClassCode {
			continue
		}
		if f.TeacherID != "" && (s.TeacherID == nil || *s.TeacherID != f.TeacherID) {
			continue
		}
		if f.ExamID != "" && s.ExamID != f.ExamID {
			continue
		}
		if f.From != nil && !s.ScheduledEnd.After(*f.From) {
			continue
		}
		if f.To != nil && !s.ScheduledStart.Before(*f.To) {
			continue
		}
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ScheduledStart.Before(result[j].ScheduledStart) })
	return result, nil
}

func (m *mockSessionRepo) Update(_ context.Context, s *model.ExamSession) error {
	cp := *s
	m.sessions[s.SessionID] = &cp
	return nil
}

func (m *mockSessionRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.sessions, id)
	return nil
}

func (m *mockSessionRepo) CountTeacherOverlaps(_ context.Context, teacherID string, start, end time.Time, excludeID string) (int64, error) {
	var n int64
	for id, s := range m.sessions {
		if id == excludeID || s.TeacherID == nil || *s.TeacherID != teacherID {
			continue
		}
		if s.ScheduledStart.Before(end) && s.ScheduledEnd.After(start) {
			n++
		}
	}
	return n, nil
}

// ── Mock TeacherRepository ──

type mockTeacherRepo struct {
	teachers     map[string]*model.Teacher
	assignments  []model.TeacherClassAssignment
	availability []model.TeacherAvailability
}

func newMockTeacherRepo() *mockTeacherRepo {
	return &mockTeacherRepo{teachers: make(map[string]*model.Teacher)}
}

func (m *mockTeacherRepo) Create(_ context.Context, t *model.Teacher) error {
	if t.TeacherID == "" {
		t.TeacherID = nextID("teacher")
	}
	m.teachers[t.TeacherID] = t
	return nil
}

func (m *mockTeacherRepo) GetByID(ctx context.Context, id string) (*model.Teacher, error) {
	t, ok := m.teachers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *t
	cp.Assignments, _ = m.ListAssignmentsByTeacher(ctx, id)
	cp.Availability, _ = m.ListAvailability(ctx, id)
	return &cp, nil
}

func (m *mockTeacherRepo) GetByEmail(_ context.Context, email string) (*model.Teacher, error) {
	for _, t := range m.teachers {
		if strings.EqualFold(t.Email, email) {
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTeacherRepo) List(_ context.Context, f repository.TeacherFilter, offset, limit int) ([]model.Teacher, int64, error) {
	var result []model.Teacher
	for _, t := range m.teachers {
		if f.Keyword != "" && !strings.Contains(t.Name, f.Keyword) && !strings.Contains(t.Email, f.Keyword) {
			continue
		}
		if f.IsActive != nil && t.IsActive != *f.IsActive {
			continue
		}
		result = append(result, *t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, int64(len(result)), nil
}

func (m *mockTeacherRepo) Update(_ context.Context, t *model.Teacher) error {
	m.teachers[t.TeacherID] = t
	return nil
}

func (m *mockTeacherRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.teachers, id)
	return nil
}

func (m *mockTeacherRepo) ListAssignmentsByTeacher(_ context.Context, teacherID string) ([]model.TeacherClassAssignment, error) {
	var result []model.TeacherClassAssignment
	for _, a := range m.assignments {
		if a.TeacherID == teacherID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *mockTeacherRepo) ListAssignmentsByClass(_ context.Context, classCode string) ([]model.TeacherClassAssignment, error) {
	var result []model.TeacherClassAssignment
	for _, a := range m.assignments {
		if a.ClassCode == classCode {
			a.Teacher = m.teachers[a.TeacherID]
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *mockTeacherRepo) IsAssigned(_ context.Context, teacherID, classCode string) (bool, error) {
	for _, a := range m.assignments {
		if a.TeacherID == teacherID && a.ClassCode == classCode {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockTeacherRepo) DeleteAssignments(_ context.Context, teacherID string) error {
	var kept []model.TeacherClassAssignment
	for _, a := range m.assignments {
		if a.TeacherID != teacherID {
			kept = append(kept, a)
		}
	}
	m.assignments = kept
	return nil
}

func (m *mockTeacherRepo) ClearPrimary(_ context.Context, classCode string) error {
	for i := range m.assignments {
		if m.assignments[i].ClassCode == classCode {
			m.assignments[i].IsPrimary = false
		}
	}
	return nil
}

func (m *mockTeacherRepo) CreateAssignments(_ context.Context, as []model.TeacherClassAssignment) error {
	m.assignments = append(m.assignments, as...)
	return nil
}

func (m *mockTeacherRepo) ListAvailability(_ context.Context, teacherID string) ([]model.TeacherAvailability, error) {
	var result []model.TeacherAvailability
	for _, a := range m.availability {
		if a.TeacherID == teacherID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *mockTeacherRepo) DeleteAvailability(_ context.Context, teacherID string) error {
	var kept []model.TeacherAvailability
	for _, a := range m.availability {
		if a.TeacherID != teacherID {
			kept = append(kept, a)
		}
	}
	m.availability = kept
	return nil
}

func (m *mockTeacherRepo) CreateAvailability(_ context.Context, slots []model.TeacherAvailability) error {
	m.availability = append(m.availability, slots...)
	return nil
}

// ── Mock StudentRepository ──

type mockStudentRepo struct {
	students map[string]*model.Student
	failOn   string // BatchCreate 遇到该学号时返回错误
}

func newMockStudentRepo() *mockStudentRepo {
	return &mockStudentRepo{students: make(map[string]*model.Student)}
}

func (m *mockStudentRepo) Create(_ context.Context, s *model.Student) error {
	if s.StudentID == "" {
		s.StudentID = "stu-" + s.StudentNumber
	}
	m.students[s.StudentID] = s
	return nil
}

func (m *mockStudentRepo) BatchCreate(ctx context.Context, students []model.Student) error {
	for _, s := range students {
		if m.failOn != "" && s.StudentNumber == m.failOn {
			return fmt.Errorf("duplicate key value violates unique constraint")
		}
	}
	for i := range students {
		_ = m.Create(ctx, &students[i])
	}
	return nil
}

func (m *mockStudentRepo) GetByID(_ context.Context, id string) (*model.Student, error) {
	if s, ok := m.students[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) ExistingNumbers(_ context.Context, numbers []string) ([]string, error) {
	var result []string
	for _, n := range numbers {
		for _, s := range m.students {
			if s.StudentNumber == n {
				result = append(result, n)
				break
			}
		}
	}
	return result, nil
}

func (m *mockStudentRepo) List(_ context.Context, f repository.StudentFilter, offset, limit int) ([]model.Student, int64, error) {
	var result []model.Student
	for _, s := range m.students {
		if f.ClassCode != "" && (s.ClassCode == nil || *s.ClassCode != f.ClassCode) {
			continue
		}
		if f.Keyword != "" && !strings.Contains(s.Name, f.Keyword) && !strings.Contains(s.StudentNumber, f.Keyword) {
			continue
		}
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StudentNumber < result[j].StudentNumber })
	return result, int64(len(result)), nil
}

func (m *mockStudentRepo) Update(_ context.Context, s *model.Student) error {
	m.students[s.StudentID] = s
	return nil
}

func (m *mockStudentRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.students, id)
	return nil
}
