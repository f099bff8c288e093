package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/sudarshan-gautam/placement-tracking-app-sub003/core/record"
)

type recordRepository struct {
	db *sqlx.DB
}

var _ record.Repository = (*recordRepository)(nil) // interface compliance check

func NewRecordRepository(db *sql.DB) *recordRepository {
	return &recordRepository{db: sqlx.NewDb(db, "postgres")}
}

func recordTable(kind record.Kind) (string, error) {
	switch kind {
	case record.KindQualification:
		return "qualification", nil
	case record.KindSession:
		return "session", nil
	case record.KindActivity:
		return "activity", nil
	case record.KindCompetency:
		return "competency_rating", nil
	case record.KindProfile:
		return "profile_document", nil
	}
	return "", record.ErrUnknownKind
}

// verRow carries a record's verification columns. For the qualification kind
// they are read off the row itself; for the other kinds off the joined
// verification table, with an absent row surfacing as a pending status.
type verRow struct {
	Status       string      `db:"v_status"`
	ReviewerID   null.String `db:"v_reviewer_id"`
	ReviewerName null.String `db:"v_reviewer_name"`
	Feedback     null.String `db:"v_feedback"`
	ReviewedAt   null.Time   `db:"v_reviewed_at"`
}

func (v verRow) state() record.VerificationState {
	return record.VerificationState{
		Status:       record.Status(v.Status),
		ReviewerID:   v.ReviewerID,
		ReviewerName: v.ReviewerName,
		Feedback:     v.Feedback,
		ReviewedAt:   v.ReviewedAt,
	}.Normalize()
}

// trapNoRowsErr maps psql "no rows" err to record.ErrNotFound
func (repo recordRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return record.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

// filterConds renders a QueryFilter into WHERE fragments. statusExpr is the
// SQL expression holding the record's effective status.
func filterConds(filter record.QueryFilter, ownerCol, statusExpr string) (conds []string, args []interface{}, empty bool, err error) {
	if filter.OwnerIDs != nil {
		if len(filter.OwnerIDs) == 0 {
			return nil, nil, true, nil // matches nothing
		}
		cond, inArgs, err := sqlx.In(ownerCol+` IN (?)`, filter.OwnerIDs)
		if err != nil {
			return nil, nil, false, errors.Wrap(err, "expanding owner filter")
		}
		conds = append(conds, cond)
		args = append(args, inArgs...)
	}
	if filter.Status != nil {
		conds = append(conds, statusExpr+` = ?`)
		args = append(args, string(*filter.Status))
	}
	return conds, args, false, nil
}

// ---- qualification: verification columns live inline on the row ----

type qualificationRow struct {
	ID           string      `db:"id"`
	OwnerID      string      `db:"owner_id"`
	Title        string      `db:"title"`
	Institution  string      `db:"institution"`
	DateObtained null.Time   `db:"date_obtained"`
	ExpiryDate   null.Time   `db:"expiry_date"`
	EvidenceURL  null.String `db:"evidence_url"`
	CreatedAt    null.Time   `db:"created_at"`
	UpdatedAt    null.Time   `db:"updated_at"`
	verRow
}

func (row qualificationRow) unrow() record.Qualification {
	return record.Qualification{
		ID:           row.ID,
		OwnerID:      row.OwnerID,
		Title:        row.Title,
		Institution:  row.Institution,
		DateObtained: row.DateObtained.Time,
		ExpiryDate:   row.ExpiryDate,
		EvidenceURL:  row.EvidenceURL,
		Verification: row.verRow.state(),
		CreatedAt:    row.CreatedAt.Time,
		UpdatedAt:    row.UpdatedAt.Time,
	}
}

const qualificationSelect = `
	SELECT q.id, q.owner_id, q.title, q.institution, q.date_obtained, q.expiry_date, q.evidence_url,
	       q.created_at, q.updated_at,
	       q.status AS v_status, q.reviewer_id AS v_reviewer_id, reviewer.name AS v_reviewer_name,
	       q.feedback AS v_feedback, q.reviewed_at AS v_reviewed_at
	FROM qualification q
	LEFT JOIN "user" reviewer ON reviewer.id = q.reviewer_id`

func (repo recordRepository) CreateQualification(ctx context.Context, q record.Qualification) (record.Qualification, error) {
	q.ID = uuid.New().String()
	q.Verification = q.Verification.Normalize()
	_, err := repo.db.ExecContext(ctx, repo.db.Rebind(`
		INSERT INTO qualification (id, owner_id, title, institution, date_obtained, expiry_date, evidence_url, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		q.ID, q.OwnerID, q.Title, q.Institution, q.DateObtained, q.ExpiryDate, q.EvidenceURL,
		string(q.Verification.Status), q.CreatedAt.UTC(), q.UpdatedAt.UTC())
	if err != nil {
		return record.Qualification{}, errors.Wrap(err, "inserting qualification")
	}
	return q, nil
}

func (repo recordRepository) UpdateQualification(ctx context.Context, q record.Qualification) (record.Qualification, error) {
	_, err := repo.db.ExecContext(ctx, repo.db.Rebind(`
		UPDATE qualification
		SET title = ?, institution = ?, date_obtained = ?, expiry_date = ?, evidence_url = ?, updated_at = ?
		WHERE id = ?`),
		q.Title, q.Institution, q.DateObtained, q.ExpiryDate, q.EvidenceURL, q.UpdatedAt.UTC(), q.ID)
	if err != nil {
		return record.Qualification{}, errors.Wrap(err, "updating qualification")
	}
	return repo.GetQualification(ctx, q.ID)
}

func (repo recordRepository) GetQualification(ctx context.Context, id string) (record.Qualification, error) {
	if _, err := uuid.Parse(id); err != nil {
		return record.Qualification{}, record.ErrNotFound
	}
	var row qualificationRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind(qualificationSelect+` WHERE q.id = ?`), id); err != nil {
		return record.Qualification{}, repo.trapNoRowsErr(err, "finding qualification")
	}
	return row.unrow(), nil
}

func (repo recordRepository) QueryQualifications(ctx context.Context, filter record.QueryFilter) ([]record.Qualification, error) {
	conds, args, empty, err := filterConds(filter, "q.owner_id", "q.status")
	if err != nil {
		return nil, err
	}
	if empty {
		return []record.Qualification{}, nil
	}
	query := qualificationSelect
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY q.date_obtained DESC`

	var rows []qualificationRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying qualifications")
	}
	quals := make([]record.Qualification, 0, len(rows))
	for _, row := range rows {
		quals = append(quals, row.unrow())
	}
	return quals, nil
}

// ---- session ----

type sessionRow struct {
	ID              string      `db:"id"`
	OwnerID         string      `db:"owner_id"`
	Title           string      `db:"title"`
	Subject         string      `db:"subject"`
	YearGroup       null.String `db:"year_group"`
	SessionDate     null.Time   `db:"session_date"`
	DurationMinutes int         `db:"duration_minutes"`
	Reflection      null.String `db:"reflection"`
	CreatedAt       null.Time   `db:"created_at"`
	UpdatedAt       null.Time   `db:"updated_at"`
	verRow
}

func (row sessionRow) unrow() record.Session {
	return record.Session{
		ID:              row.ID,
		OwnerID:         row.OwnerID,
		Title:           row.Title,
		Subject:         row.Subject,
		YearGroup:       row.YearGroup.String,
		SessionDate:     row.SessionDate.Time,
		DurationMinutes: row.DurationMinutes,
		Reflection:      row.Reflection.String,
		Verification:    row.verRow.state(),
		CreatedAt:       row.CreatedAt.Time,
		UpdatedAt:       row.UpdatedAt.Time,
	}
}

// joinedSelect builds the SELECT for a kind whose verification lives in the
// joined verification table.
func joinedSelect(table string, kind record.Kind, cols string) string {
	return `
	SELECT ` + cols + `,
	       COALESCE(v.status, 'pending') AS v_status, v.reviewer_id AS v_reviewer_id,
	       reviewer.name AS v_reviewer_name, v.feedback AS v_feedback, v.reviewed_at AS v_reviewed_at
	FROM ` + table + ` r
	LEFT JOIN verification v ON v.record_kind = '` + string(kind) + `' AND v.record_id = r.id
	LEFT JOIN "user" reviewer ON reviewer.id = v.reviewer_id`
}

var sessionSelect = joinedSelect("session", record.KindSession,
	`r.id, r.owner_id, r.title, r.subject, r.year_group, r.session_date, r.duration_minutes, r.reflection, r.created_at, r.updated_at`)

func (repo recordRepository) CreateSession(ctx context.Context, s record.Session) (record.Session, error) {
	s.ID = uuid.New().String()
	s.Verification = s.Verification.Normalize()
	_, err := repo.db.ExecContext(ctx, repo.db.Rebind(`
		INSERT INTO session (id, owner_id, title, subject, year_group, session_date, duration_minutes, reflection, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		s.ID, s.OwnerID, s.Title, s.Subject, s.YearGroup, s.SessionDate, s.DurationMinutes, s.Reflection,
		s.CreatedAt.UTC(), s.UpdatedAt.UTC())
	if err != nil {
		return record.Session{}, errors.Wrap(err, "inserting session")
	}
	return s, nil
}

func (repo recordRepository) UpdateSession(ctx context.Context, s record.Session) (record.Session, error) {
	_, err := repo.db.ExecContext(ctx, repo.db.Rebind(`
		UPDATE session
		SET title = ?, subject = ?, year_group = ?, session_date = ?, duration_minutes = ?, reflection = ?, updated_at = ?
		WHERE id = ?`),
		s.Title, s.Subject, s.YearGroup, s.SessionDate, s.DurationMinutes, s.Reflection, s.UpdatedAt.UTC(), s.ID)
	if err != nil {
		return record.Session{}, errors.Wrap(err, "updating session")
	}
	return repo.GetSession(ctx, s.ID)
}

func (repo recordRepository) GetSession(ctx context.Context, id string) (record.Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return record.Session{}, record.ErrNotFound
	}
	var row sessionRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind(sessionSelect+` WHERE r.id = ?`), id); err != nil {
		return record.Session{}, repo.trapNoRowsErr(err, "finding session")
	}
	return row.unrow(), nil
}

func (repo recordRepository) QuerySessions(ctx context.Context, filter record.QueryFilter) ([]record.Session, error) {
	conds, args, empty, err := filterConds(filter, "r.owner_id", "COALESCE(v.status, 'pending')")
	if err != nil {
		return nil, err
	}
	if empty {
		return []record.Session{}, nil
	}
	query := sessionSelect
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY r.session_date DESC`

	var rows []sessionRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying sessions")
	}
	sessions := make([]record.Session, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, row.unrow())
	}
	return sessions, nil
}

// ---- activity ----

type activityRow struct {
	ID            string       `db:"id"`
	OwnerID       string       `db:"owner_id"`
	Title         string       `db:"title"`
	ActivityType  string       `db:"activity_type"`
	CompletedAt   null.Time    `db:"completed_at"`
	DurationHours null.Float64 `db:"duration_hours"`
	Description   null.String  `db:"description"`
	EvidenceURL   null.String  `db:"evidence_url"`
	CreatedAt     null.Time    `db:"created_at"`
	UpdatedAt     null.Time    `db:"updated_at"`
	verRow
}

func (row activityRow) unrow() record.Activity {
	return record.Activity{
		ID:            row.ID,
		OwnerID:       row.OwnerID,
		Title:         row.Title,
		ActivityType:  row.ActivityType,
		CompletedAt:   row.CompletedAt.Time,
		DurationHours: row.DurationHours.Float64,
		Description:   row.Description.String,
		EvidenceURL:   row.EvidenceURL,
		Verification:  row.verRow.state(),
		CreatedAt:     row.CreatedAt.Time,
		UpdatedAt:     row.UpdatedAt.Time,
	}
}

var activitySelect = joinedSelect("activity", record.KindActivity,
	`r.id, r.owner_id, r.title, r.activity_type, r.completed_at, r.duration_hours, r.description, r.evidence_url, r.created_at, r.updated_at`)

func (repo recordRepository) CreateActivity(ctx context.Context, a record.Activity) (record.Activity, error) {
	a.ID = uuid.New().String()
	a.Verification = a.Verification.Normalize()
	_, err := repo.db.ExecContext(ctx, repo.db.Rebind(`
		INSERT INTO activity (id, owner_id, title, activity_type, completed_at, duration_hours, description, evidence_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		a.ID, a.OwnerID, a.Title, a.ActivityType, a.CompletedAt, a.DurationHours, a.Description, a.EvidenceURL,
		a.CreatedAt.UTC(), a.UpdatedAt.UTC())
	if err != nil {
		return record.Activity{}, errors.Wrap(err, "inserting activity")
	}
	return a, nil
}

func (repo recordRepository) UpdateActivity(ctx context.Context, a record.Activity) (record.Activity, error) {
	_, err := repo.db.ExecContext(ctx, repo.db.Rebind(`
		UPDATE activity
		SET title = ?, activity_type = ?, completed_at = ?, duration_hours = ?, description = ?, evidence_url = ?, updated_at = ?
		WHERE id = ?`),
		a.Title, a.ActivityType, a.CompletedAt, a.DurationHours, a.Description, a.EvidenceURL, a.UpdatedAt.UTC(), a.ID)
	if err != nil {
		return record.Activity{}, errors.Wrap(err, "updating activity")
	}
	return repo.GetActivity(ctx, a.ID)
}

func (repo recordRepository) GetActivity(ctx context.Context, id string) (record.Activity, error) {
	if _, err := uuid.Parse(id); err != nil {
		return record.Activity{}, record.ErrNotFound
	}
	var row activityRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind(activitySelect+` WHERE r.id = ?`), id); err != nil {
		return record.Activity{}, repo.trapNoRowsErr(err, "finding activity")
	}
	return row.unrow(), nil
}

func (repo recordRepository) QueryActivities(ctx context.Context, filter record.QueryFilter) ([]record.Activity, error) {
	conds, args, empty, err := filterConds(filter, "r.owner_id", "COALESCE(v.status, 'pending')")
	if err != nil {
		return nil, err
	}
	if empty {
		return []record.Activity{}, nil
	}
	query := activitySelect
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY r.completed_at DESC`

	var rows []activityRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying activities")
	}
	activities := make([]record.Activity, 0, len(rows))
	for _, row := range rows {
		activities = append(activities, row.unrow())
	}
	return activities, nil
}

// ---- competency rating ----

type competencyRow struct {
	ID         string      `db:"id"`
	OwnerID    string      `db:"owner_id"`
	Category   string      `db:"category"`
	Name       string      `db:"name"`
	SelfRating int         `db:"self_rating"`
	Statement  null.String `db:"statement"`
	CreatedAt  null.Time   `db:"created_at"`
	UpdatedAt  null.Time   `db:"updated_at"`
	verRow
}

func (row competencyRow) unrow() record.CompetencyRating {
	return record.CompetencyRating{
		ID:           row.ID,
		OwnerID:      row.OwnerID,
		Category:     row.Category,
		Name:         row.Name,
		SelfRating:   row.SelfRating,
		Statement:    row.Statement.String,
		Verification: row.verRow.state(),
		CreatedAt:    row.CreatedAt.Time,
		UpdatedAt:    row.UpdatedAt.Time,
	}
}

var competencySelect = joinedSelect("competency_rating", record.KindCompetency,
	`r.id, r.owner_id, r.category, r.name, r.self_rating, r.statement, r.created_at, r.updated_at`)

func (repo recordRepository) CreateCompetencyRating(ctx context.Context, c record.CompetencyRating) (record.CompetencyRating, error) {
	c.ID = uuid.New().String()
	c.Verification = c.Verification.Normalize()
	_, err := repo.db.ExecContext(ctx, repo.db.Rebind(`
		INSERT INTO competency_rating (id, owner_id, category, name, self_rating, statement, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		c.ID, c.OwnerID, c.Category, c.Name, c.SelfRating, c.Statement, c.CreatedAt.UTC(), c.UpdatedAt.UTC())
	if err != nil {
		return record.CompetencyRating{}, errors.Wrap(err, "inserting competency rating")
	}
	return c, nil
}

func (repo recordRepository) UpdateCompetencyRating(ctx context.Context, c record.CompetencyRating) (record.CompetencyRating, error) {
	_, err := repo.db.ExecContext(ctx, repo.db.Rebind(`
		UPDATE competency_rating
		SET category = ?, name = ?, self_rating = ?, statement = ?, updated_at = ?
		WHERE id = ?`),
		c.Category, c.Name, c.SelfRating, c.Statement, c.UpdatedAt.UTC(), c.ID)
	if err != nil {
		return record.CompetencyRating{}, errors.Wrap(err, "updating competency rating")
	}
	return repo.GetCompetencyRating(ctx, c.ID)
}

func (repo recordRepository) GetCompetencyRating(ctx context.Context, id string) (record.CompetencyRating, error) {
	if _, err := uuid.Parse(id); err != nil {
		return record.CompetencyRating{}, record.ErrNotFound
	}
	var row competencyRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind(competencySelect+` WHERE r.id = ?`), id); err != nil {
		return record.CompetencyRating{}, repo.trapNoRowsErr(err, "finding competency rating")
	}
	return row.unrow(), nil
}

func (repo recordRepository) QueryCompetencyRatings(ctx context.Context, filter record.QueryFilter) ([]record.CompetencyRating, error) {
	conds, args, empty, err := filterConds(filter, "r.owner_id", "COALESCE(v.status, 'pending')")
	if err != nil {
		return nil, err
	}
	if empty {
		return []record.CompetencyRating{}, nil
	}
	query := competencySelect
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY r.category, r.name`

	var rows []competencyRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying competency ratings")
	}
	ratings := make([]record.CompetencyRating, 0, len(rows))
	for _, row := range rows {
		ratings = append(ratings, row.unrow())
	}
	return ratings, nil
}

// ---- profile document ----

type profileDocumentRow struct {
	ID           string      `db:"id"`
	OwnerID      string      `db:"owner_id"`
	OwnerName    null.String `db:"owner_name"`
	DocumentType string      `db:"document_type"`
	Title        string      `db:"title"`
	FileURL      string      `db:"file_url"`
	UploadedAt   null.Time   `db:"uploaded_at"`
	CreatedAt    null.Time   `db:"created_at"`
	UpdatedAt    null.Time   `db:"updated_at"`
	verRow
}

func (row profileDocumentRow) unrow() record.ProfileDocument {
	return record.ProfileDocument{
		ID:           row.ID,
		OwnerID:      row.OwnerID,
		OwnerName:    row.OwnerName.String,
		DocumentType: row.DocumentType,
		Title:        row.Title,
		FileURL:      row.FileURL,
		UploadedAt:   row.UploadedAt.Time,
		Verification: row.verRow.state(),
		CreatedAt:    row.CreatedAt.Time,
		UpdatedAt:    row.UpdatedAt.Time,
	}
}

const profileDocumentSelect = `
	SELECT r.id, r.owner_id, owner.name AS owner_name, r.document_type, r.title, r.file_url, r.uploaded_at,
	       r.created_at, r.updated_at,
	       COALESCE(v.status, 'pending') AS v_status, v.reviewer_id AS v_reviewer_id,
	       reviewer.name AS v_reviewer_name, v.feedback AS v_feedback, v.reviewed_at AS v_reviewed_at
	FROM profile_document r
	LEFT JOIN "user" owner ON owner.id = r.owner_id
	LEFT JOIN verification v ON v.record_kind = 'profile' AND v.record_id = r.id
	LEFT JOIN "user" reviewer ON reviewer.id = v.reviewer_id`

func (repo recordRepository) CreateProfileDocument(ctx context.Context, d record.ProfileDocument) (record.ProfileDocument, error) {
	d.ID = uuid.New().String()
	d.Verification = d.Verification.Normalize()
	_, err := repo.db.ExecContext(ctx, repo.db.Rebind(`
		INSERT INTO profile_document (id, owner_id, document_type, title, file_url, uploaded_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		d.ID, d.OwnerID, d.DocumentType, d.Title, d.FileURL, d.UploadedAt.UTC(), d.CreatedAt.UTC(), d.UpdatedAt.UTC())
	if err != nil {
		return record.ProfileDocument{}, errors.Wrap(err, "inserting profile document")
	}
	return repo.GetProfileDocument(ctx, d.ID)
}

func (repo recordRepository) UpdateProfileDocument(ctx context.Context, d record.ProfileDocument) (record.ProfileDocument, error) {
	_, err := repo.db.ExecContext(ctx, repo.db.Rebind(`
		UPDATE profile_document
		SET document_type = ?, title = ?, file_url = ?, uploaded_at = ?, updated_at = ?
		WHERE id = ?`),
		d.DocumentType, d.Title, d.FileURL, d.UploadedAt.UTC(), d.UpdatedAt.UTC(), d.ID)
	if err != nil {
		return record.ProfileDocument{}, errors.Wrap(err, "updating profile document")
	}
	return repo.GetProfileDocument(ctx, d.ID)
}

func (repo recordRepository) GetProfileDocument(ctx context.Context, id string) (record.ProfileDocument, error) {
	if _, err := uuid.Parse(id); err != nil {
		return record.ProfileDocument{}, record.ErrNotFound
	}
	var row profileDocumentRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind(profileDocumentSelect+` WHERE r.id = ?`), id); err != nil {
		return record.ProfileDocument{}, repo.trapNoRowsErr(err, "finding profile document")
	}
	return row.unrow(), nil
}

func (repo recordRepository) QueryProfileDocuments(ctx context.Context, filter record.QueryFilter) ([]record.ProfileDocument, error) {
	conds, args, empty, err := filterConds(filter, "r.owner_id", "COALESCE(v.status, 'pending')")
	if err != nil {
		return nil, err
	}
	if empty {
		return []record.ProfileDocument{}, nil
	}
	query := profileDocumentSelect
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY owner_name, r.uploaded_at DESC`

	var rows []profileDocumentRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying profile documents")
	}
	docs := make([]record.ProfileDocument, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, row.unrow())
	}
	return docs, nil
}

// ---- cross-kind operations ----

func (repo recordRepository) GetOwnerID(ctx context.Context, kind record.Kind, id string) (string, error) {
	table, err := recordTable(kind)
	if err != nil {
		return "", err
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", record.ErrNotFound
	}
	var ownerID string
	err = repo.db.GetContext(ctx, &ownerID, repo.db.Rebind(`SELECT owner_id FROM `+table+` WHERE id = ?`), id)
	if err != nil {
		return "", repo.trapNoRowsErr(err, "finding record owner")
	}
	return ownerID, nil
}

func (repo recordRepository) CountPending(ctx context.Context, kind record.Kind, ownerIDs []string) (int, error) {
	table, err := recordTable(kind)
	if err != nil {
		return 0, err
	}

	var query string
	if kind == record.KindQualification {
		query = `SELECT COUNT(*) FROM qualification r WHERE r.status = 'pending'`
	} else {
		query = `SELECT COUNT(*) FROM ` + table + ` r
			LEFT JOIN verification v ON v.record_kind = '` + string(kind) + `' AND v.record_id = r.id
			WHERE COALESCE(v.status, 'pending') = 'pending'`
	}

	var args []interface{}
	if ownerIDs != nil {
		if len(ownerIDs) == 0 {
			return 0, nil
		}
		cond, inArgs, err := sqlx.In(` AND r.owner_id IN (?)`, ownerIDs)
		if err != nil {
			return 0, errors.Wrap(err, "expanding owner filter")
		}
		query += cond
		args = inArgs
	}

	var cnt int
	if err := repo.db.GetContext(ctx, &cnt, repo.db.Rebind(query), args...); err != nil {
		return 0, errors.Wrap(err, "counting pending records")
	}
	return cnt, nil
}

func (repo recordRepository) UpsertVerification(ctx context.Context, kind record.Kind, recordID string, ver record.VerificationState) (record.VerificationState, error) {
	if _, err := recordTable(kind); err != nil {
		return record.VerificationState{}, err
	}
	ver = ver.Normalize()

	var err error
	if kind == record.KindQualification {
		_, err = repo.db.ExecContext(ctx, repo.db.Rebind(`
			UPDATE qualification
			SET status = ?, reviewer_id = ?, feedback = ?, reviewed_at = ?
			WHERE id = ?`),
			string(ver.Status), ver.ReviewerID, ver.Feedback, ver.ReviewedAt, recordID)
	} else {
		_, err = repo.db.ExecContext(ctx, repo.db.Rebind(`
			INSERT INTO verification (record_kind, record_id, status, reviewer_id, feedback, reviewed_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (record_kind, record_id)
			DO UPDATE SET status = EXCLUDED.status, reviewer_id = EXCLUDED.reviewer_id,
			              feedback = EXCLUDED.feedback, reviewed_at = EXCLUDED.reviewed_at`),
			string(kind), recordID, string(ver.Status), ver.ReviewerID, ver.Feedback, ver.ReviewedAt)
	}
	if err != nil {
		return record.VerificationState{}, errors.Wrap(err, "writing verification state")
	}

	ver.ReviewerName = null.String{}
	if ver.ReviewerID.Valid {
		// best effort; a missing reviewer leaves the name null
		var name null.String
		err = repo.db.GetContext(ctx, &name,
			repo.db.Rebind(`SELECT name FROM "user" WHERE id = ?`), ver.ReviewerID.String)
		if err == nil {
			ver.ReviewerName = name
		}
	}
	return ver, nil
}
