package handler_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/worship/api/internal/model"
	"github.com/forgo/worship/api/internal/service"
	"github.com/forgo/worship/api/internal/testing/helpers"
)

// ============================================================================
// Health and auth
// ============================================================================

func TestRouter_Health(t *testing.T) {
	t.Parallel()
	e := newAPI(t)

	resp := e.do(t, helpers.NewRequest(t, http.MethodGet, "/health"), nil)
	helpers.AssertStatus(t, resp, http.StatusOK)
	assert.Equal(t, "no-store", resp.Header().Get("Cache-Control"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
}

func TestRouter_Metrics(t *testing.T) {
	t.Parallel()
	e := newAPI(t)

	resp := e.do(t, helpers.NewRequest(t, http.MethodGet, "/metrics"), nil)
	helpers.AssertStatus(t, resp, http.StatusOK)
}

func TestRouter_RegisterLoginRefresh(t *testing.T) {
	t.Parallel()
	e := newAPI(t)

	resp := e.do(t, helpers.NewRequest(t, http.MethodPost, "/v1/auth/register").WithBody(model.RegisterRequest{
		Email:     "anna@church.test",
		Password:  "correct horse",
		FirstName: "Anna",
	}), nil)
	helpers.AssertStatus(t, resp, http.StatusCreated)

	var registered service.AuthResult
	helpers.DecodeData(t, resp, &registered)
	assert.Equal(t, model.UserRoleMusician, registered.User.Role)
	require.NotNil(t, registered.TokenPair)

	resp = e.do(t, helpers.NewRequest(t, http.MethodPost, "/v1/auth/login").WithBody(model.LoginRequest{
		Email:    "anna@church.test",
		Password: "correct horse",
	}), nil)
	helpers.AssertStatus(t, resp, http.StatusOK)
	var login service.AuthResult
	helpers.DecodeData(t, resp, &login)

	resp = e.do(t, helpers.NewRequest(t, http.MethodPost, "/v1/auth/refresh").WithBody(model.RefreshRequest{
		RefreshToken: login.TokenPair.RefreshToken,
	}), nil)
	helpers.AssertStatus(t, resp, http.StatusOK)

	// Refresh tokens rotate.
	resp = e.do(t, helpers.NewRequest(t, http.MethodPost, "/v1/auth/refresh").WithBody(model.RefreshRequest{
		RefreshToken: login.TokenPair.RefreshToken,
	}), nil)
	helpers.AssertProblemDetails(t, resp, http.StatusUnauthorized, model.ErrCodeTokenInvalid)
}

func TestRouter_LoginWrongPassword(t *testing.T) {
	t.Parallel()
	e := newAPI(t)

	resp := e.do(t, helpers.NewRequest(t, http.MethodPost, "/v1/auth/login").WithBody(model.LoginRequest{
		Email:    "nobody@church.test",
		Password: "whatever1",
	}), nil)
	helpers.AssertProblemDetails(t, resp, http.StatusUnauthorized, model.ErrCodeLoginFailed)
	assert.Equal(t, "no-store", resp.Header().Get("Cache-Control"))
}

func TestRouter_Me(t *testing.T) {
	t.Parallel()
	e := newAPI(t)
	u := e.user(t, "Ben", model.UserRoleMusician)

	resp := e.do(t, helpers.NewRequest(t, http.MethodGet, "/v1/auth/me"), u)
	helpers.AssertStatus(t, resp, http.StatusOK)

	var me model.User
	helpers.DecodeData(t, resp, &me)
	assert.Equal(t, u.ID, me.ID)
}

// ============================================================================
// Request validation
// ============================================================================

func TestRouter_RequestErrors(t *testing.T) {
	t.Parallel()
	e := newAPI(t)
	musician := e.user(t, "Cara", model.UserRoleMusician)
	leader := e.user(t, "Dan", model.UserRoleLeader)

	tests := []struct {
		name   string
		req    *helpers.RequestBuilder
		user   *model.User
		status int
		code   model.ErrorCode
	}{
		{
			name:   "missing token",
			req:    helpers.NewRequest(t, http.MethodGet, "/v1/songs"),
			status: http.StatusUnauthorized,
			code:   model.ErrCodeUnauthorized,
		},
		{
			name:   "musician cannot list users",
			req:    helpers.NewRequest(t, http.MethodGet, "/v1/users"),
			user:   musician,
			status: http.StatusForbidden,
			code:   model.ErrCodeRoleMissing,
		},
		{
			name:   "leader cannot create instruments",
			req:    helpers.NewRequest(t, http.MethodPost, "/v1/instruments").WithBody(map[string]string{"name": "Cello"}),
			user:   leader,
			status: http.StatusForbidden,
			code:   model.ErrCodeRoleMissing,
		},
		{
			name:   "malformed id",
			req:    helpers.NewRequest(t, http.MethodGet, "/v1/songs/not-a-uuid"),
			user:   musician,
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown song",
			req:    helpers.NewRequest(t, http.MethodGet, "/v1/songs/7d3c6f0e-8c1a-4a8b-9a55-0d4c3f1b2a10"),
			user:   musician,
			status: http.StatusNotFound,
			code:   model.ErrCodeNotFound,
		},
		{
			name:   "unknown field",
			req:    helpers.NewRequest(t, http.MethodPost, "/v1/songs").WithBody(map[string]string{"title": "Hymn", "colour": "blue"}),
			user:   leader,
			status: http.StatusBadRequest,
		},
		{
			name:   "malformed json",
			req:    helpers.NewRequest(t, http.MethodPost, "/v1/songs").WithRawBody("application/json", strings.NewReader(`{"title":`)),
			user:   leader,
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := e.do(t, tt.req, tt.user)
			helpers.AssertProblemDetails(t, resp, tt.status, tt.code)
			assert.Equal(t, "application/problem+json", resp.Header().Get("Content-Type"))
		})
	}
}

func TestRouter_ValidationErrors(t *testing.T) {
	t.Parallel()
	e := newAPI(t)
	leader := e.user(t, "Eve", model.UserRoleLeader)

	resp := e.do(t, helpers.NewRequest(t, http.MethodPost, "/v1/songs").WithBody(model.CreateSongRequest{
		Title:      "Be Thou My Vision",
		DefaultKey: helpers.StringPtr("H#"),
	}), leader)
	helpers.AssertValidationError(t, resp, "default_key")

	resp = e.do(t, helpers.NewRequest(t, http.MethodPost, "/v1/transpose").WithBody(model.TransposeRequest{
		Chart: "[G]Amazing",
		From:  "G",
	}), leader)
	helpers.AssertValidationError(t, resp, "to")
}

// ============================================================================
// Songs
// ============================================================================

func TestRouter_SongsCreateSearchTranspose(t *testing.T) {
	t.Parallel()
	e := newAPI(t)
	leader := e.user(t, "Finn", model.UserRoleLeader)
	musician := e.user(t, "Gail", model.UserRoleMusician)

	resp := e.do(t, helpers.NewRequest(t, http.MethodPost, "/v1/songs").WithBody(model.CreateSongRequest{
		Title:      "Amazing Grace",
		DefaultKey: helpers.StringPtr("G"),
	}), leader)
	helpers.AssertStatus(t, resp, http.StatusCreated)

	// Musicians may read but not write songs.
	resp = e.do(t, helpers.NewRequest(t, http.MethodPost, "/v1/songs").WithBody(model.CreateSongRequest{Title: "Nope"}), musician)
	helpers.AssertProblemDetails(t, resp, http.StatusForbidden, model.ErrCodeRoleMissing)

	resp = e.do(t, helpers.NewRequest(t, http.MethodGet, "/v1/songs?q=amazng"), musician)
	helpers.AssertStatus(t, resp, http.StatusOK)
	var songs []model.Song
	helpers.DecodeData(t, resp, &songs)
	require.Len(t, songs, 1)
	assert.Equal(t, "Amazing Grace", songs[0].Title)

	resp = e.do(t, helpers.NewRequest(t, http.MethodPost, "/v1/transpose").WithBody(model.TransposeRequest{
		Chart: "[G]Amazing [C]grace",
		From:  "G",
		To:    "A",
	}), musician)
	helpers.AssertStatus(t, resp, http.StatusOK)
	assert.Contains(t, resp.Body.String(), "[A]Amazing [D]grace")
}

func TestRouter_ImportLibrary(t *testing.T) {
	t.Parallel()
	e := newAPI(t)
	leader := e.user(t, "Hana", model.UserRoleLeader)

	library := `
instruments:
  - name: Keys
    category: keys
songs:
  - title: Cornerstone
    artist: Hillsong
    key: C
    versions:
      - name: Default
        key: C
        chart: "[C]My hope is [F]built"
`
	resp := e.do(t, helpers.NewRequest(t, http.MethodPost, "/v1/songs/import").
		WithRawBody("application/yaml", strings.NewReader(library)), leader)
	helpers.AssertStatus(t, resp, http.StatusOK)

	var result model.ImportResult
	helpers.DecodeData(t, resp, &result)
	assert.Equal(t, 1, result.SongsCreated)
	assert.Equal(t, 1, result.VersionsCreated)
	assert.Equal(t, 1, result.InstrumentsCreated)
}

// ============================================================================
// Worship sets
// ============================================================================

func TestRouter_WorshipSetLineup(t *testing.T) {
	t.Parallel()
	e := newAPI(t)
	admin := e.user(t, "Ivy", model.UserRoleAdmin)
	leader := e.user(t, "Jon", model.UserRoleLeader)
	other := e.user(t, "Kim", model.UserRoleLeader)
	st := e.sundayType(t)
	svc := e.service(t, st.ID, "2025-03-09")
	first := e.song(t, "Holy Holy Holy")
	second := e.song(t, "It Is Well")

	resp := e.do(t, helpers.NewRequest(t, http.MethodPost, "/v1/services/"+svc.ID+"/worship-set").
		WithBody(model.CreateWorshipSetRequest{LeaderID: &leader.ID}), admin)
	helpers.AssertStatus(t, resp, http.StatusCreated)
	var detail model.WorshipSetDetail
	helpers.DecodeData(t, resp, &detail)
	setID := detail.WorshipSet.ID
	assert.Equal(t, model.LeaderSourceManual, detail.WorshipSet.LeaderSource)

	var added []model.SetSong
	for _, song := range []*model.Song{first, second} {
		resp = e.do(t, helpers.NewRequest(t, http.MethodPost, "/v1/worship-sets/"+setID+"/songs").
			WithBody(model.AddSetSongRequest{SongID: song.ID}), leader)
		helpers.AssertStatus(t, resp, http.StatusCreated)
		var ss model.SetSong
		helpers.DecodeData(t, resp, &ss)
		added = append(added, ss)
	}

	// Only the set's own leader or an admin may edit.
	resp = e.do(t, helpers.NewRequest(t, http.MethodPost, "/v1/worship-sets/"+setID+"/songs").
		WithBody(model.AddSetSongRequest{SongID: first.ID}), other)
	helpers.AssertProblemDetails(t, resp, http.StatusForbidden, model.ErrCodeNotSetOwner)

	resp = e.do(t, helpers.NewRequest(t, http.MethodPut, "/v1/worship-sets/"+setID+"/songs/order").
		WithBody(model.ReorderSetSongsRequest{SetSongIDs: []string{added[1].ID, added[0].ID}}), leader)
	helpers.AssertStatus(t, resp, http.StatusOK)

	resp = e.do(t, helpers.NewRequest(t, http.MethodGet, "/v1/worship-sets/"+setID+"/songs"), other)
	helpers.AssertStatus(t, resp, http.StatusOK)
	var lineup []model.SetSong
	helpers.DecodeData(t, resp, &lineup)
	require.Len(t, lineup, 2)
	assert.Equal(t, second.ID, lineup[0].SongID)
	assert.Equal(t, 1, lineup[0].Position)

	resp = e.do(t, helpers.NewRequest(t, http.MethodPost, "/v1/worship-sets/"+setID+"/publish"), leader)
	helpers.AssertStatus(t, resp, http.StatusOK)
}

func TestRouter_RotationNext(t *testing.T) {
	t.Parallel()
	e := newAPI(t)
	admin := e.user(t, "Lou", model.UserRoleAdmin)
	leader := e.user(t, "Max", model.UserRoleLeader)
	st := e.sundayType(t)

	resp := e.do(t, helpers.NewRequest(t, http.MethodGet, "/v1/service-types/"+st.ID+"/rotation/next?date=2025-03-09"), admin)
	helpers.AssertProblemDetails(t, resp, http.StatusConflict, 0)

	resp = e.do(t, helpers.NewRequest(t, http.MethodPost, "/v1/service-types/"+st.ID+"/rotation").
		WithBody(model.AddRotationMemberRequest{UserID: leader.ID}), admin)
	helpers.AssertStatus(t, resp, http.StatusCreated)

	// Leaders may read the rotation but not change it.
	resp = e.do(t, helpers.NewRequest(t, http.MethodPost, "/v1/service-types/"+st.ID+"/rotation/recalculate"), leader)
	helpers.AssertProblemDetails(t, resp, http.StatusForbidden, model.ErrCodeRoleMissing)

	resp = e.do(t, helpers.NewRequest(t, http.MethodGet, "/v1/service-types/"+st.ID+"/rotation/next?date=2025-03-09"), leader)
	helpers.AssertStatus(t, resp, http.StatusOK)
	var next model.NextLeader
	helpers.DecodeData(t, resp, &next)
	require.NotNil(t, next.Member)
	assert.Equal(t, leader.ID, next.Member.UserID)

	resp = e.do(t, helpers.NewRequest(t, http.MethodGet, "/v1/service-types/"+st.ID+"/rotation/next?date=09-03-2025"), leader)
	helpers.AssertStatus(t, resp, http.StatusBadRequest)
}

// ============================================================================
// Chord sheets
// ============================================================================

func multipartSheet(t *testing.T, fileName string, content []byte, key string) (string, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if key != "" {
		require.NoError(t, mw.WriteField("key", key))
	}
	fw, err := mw.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return mw.FormDataContentType(), &buf
}

func TestRouter_ChordSheetUploadDownload(t *testing.T) {
	t.Parallel()
	e := newAPI(t)
	musician := e.user(t, "Nia", model.UserRoleMusician)
	song := e.song(t, "Great Is Thy Faithfulness")

	chart := []byte("[D]Great is thy [G]faithfulness\n")
	contentType, body := multipartSheet(t, "faithfulness.txt", chart, "D")
	resp := e.do(t, helpers.NewRequest(t, http.MethodPost, "/v1/songs/"+song.ID+"/chord-sheets").
		WithRawBody(contentType, body), musician)
	helpers.AssertStatus(t, resp, http.StatusCreated)

	var sheet model.ChordSheet
	helpers.DecodeData(t, resp, &sheet)
	assert.Equal(t, "faithfulness.txt", sheet.FileName)
	assert.True(t, strings.HasPrefix(sheet.ContentType, "text/plain"))
	require.NotNil(t, sheet.Key)
	assert.Equal(t, "D", *sheet.Key)

	resp = e.do(t, helpers.NewRequest(t, http.MethodGet, "/v1/chord-sheets/"+sheet.ID+"/file"), musician)
	helpers.AssertStatus(t, resp, http.StatusOK)
	assert.Equal(t, chart, resp.Body.Bytes())
	assert.Equal(t, "nosniff", resp.Header().Get("X-Content-Type-Options"))

	resp = e.do(t, helpers.NewRequest(t, http.MethodGet, "/v1/songs/"+song.ID+"/chord-sheets"), musician)
	helpers.AssertStatus(t, resp, http.StatusOK)
	var sheets []model.ChordSheet
	helpers.DecodeData(t, resp, &sheets)
	assert.Len(t, sheets, 1)
}

func TestRouter_ChordSheetRejected(t *testing.T) {
	t.Parallel()
	e := newAPI(t)
	musician := e.user(t, "Oli", model.UserRoleMusician)
	song := e.song(t, "Crown Him")

	t.Run("too large", func(t *testing.T) {
		contentType, body := multipartSheet(t, "big.txt", bytes.Repeat([]byte("a"), 4096), "")
		resp := e.do(t, helpers.NewRequest(t, http.MethodPost, "/v1/songs/"+song.ID+"/chord-sheets").
			WithRawBody(contentType, body), musician)
		helpers.AssertProblemDetails(t, resp, http.StatusRequestEntityTooLarge, model.ErrCodeTooLarge)
	})

	t.Run("not multipart", func(t *testing.T) {
		resp := e.do(t, helpers.NewRequest(t, http.MethodPost, "/v1/songs/"+song.ID+"/chord-sheets").
			WithBody(map[string]string{"file": "x"}), musician)
		helpers.AssertStatus(t, resp, http.StatusUnsupportedMediaType)
	})

	t.Run("binary content", func(t *testing.T) {
		contentType, body := multipartSheet(t, "tool.exe", []byte("MZ\x90\x00\x03\x00\x00\x00\x04\x00\x00\x00\xff\xff"), "")
		resp := e.do(t, helpers.NewRequest(t, http.MethodPost, "/v1/songs/"+song.ID+"/chord-sheets").
			WithRawBody(contentType, body), musician)
		helpers.AssertStatus(t, resp, http.StatusUnsupportedMediaType)
	})

	t.Run("missing file", func(t *testing.T) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("key", "G"))
		require.NoError(t, mw.Close())
		resp := e.do(t, helpers.NewRequest(t, http.MethodPost, "/v1/songs/"+song.ID+"/chord-sheets").
			WithRawBody(mw.FormDataContentType(), &buf), musician)
		helpers.AssertValidationError(t, resp, "file")
	})
}

// ============================================================================
// Export
// ============================================================================

func TestRouter_ExportSchedule(t *testing.T) {
	t.Parallel()
	e := newAPI(t)
	leader := e.user(t, "Pia", model.UserRoleLeader)
	musician := e.user(t, "Quin", model.UserRoleMusician)
	st := e.sundayType(t)
	e.service(t, st.ID, "2025-03-09")

	resp := e.do(t, helpers.NewRequest(t, http.MethodGet, "/v1/services/export.xlsx?from=2025-03-01&to=2025-03-31"), leader)
	helpers.AssertStatus(t, resp, http.StatusOK)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header().Get("Content-Type"))
	assert.Contains(t, resp.Header().Get("Content-Disposition"), "schedule.xlsx")
	// xlsx files are zip archives.
	assert.True(t, bytes.HasPrefix(resp.Body.Bytes(), []byte("PK")))

	resp = e.do(t, helpers.NewRequest(t, http.MethodGet, "/v1/services/export.xlsx"), musician)
	helpers.AssertProblemDetails(t, resp, http.StatusForbidden, model.ErrCodeRoleMissing)
}

// ============================================================================
// Assignments and availability
// ============================================================================

func TestRouter_AssignmentRespond(t *testing.T) {
	t.Parallel()
	e := newAPI(t)
	admin := e.user(t, "Rae", model.UserRoleAdmin)
	musician := e.user(t, "Sam", model.UserRoleMusician)
	bystander := e.user(t, "Tia", model.UserRoleMusician)
	st := e.sundayType(t)
	svc := e.service(t, st.ID, "2025-03-09")

	resp := e.do(t, helpers.NewRequest(t, http.MethodPost, "/v1/instruments").
		WithBody(model.CreateInstrumentRequest{Name: "Bass"}), admin)
	helpers.AssertStatus(t, resp, http.StatusCreated)
	var bass model.Instrument
	helpers.DecodeData(t, resp, &bass)

	resp = e.do(t, helpers.NewRequest(t, http.MethodPost, "/v1/services/"+svc.ID+"/worship-set").
		WithBody(model.CreateWorshipSetRequest{LeaderID: &admin.ID}), admin)
	helpers.AssertStatus(t, resp, http.StatusCreated)
	var detail model.WorshipSetDetail
	helpers.DecodeData(t, resp, &detail)

	resp = e.do(t, helpers.NewRequest(t, http.MethodPost, "/v1/worship-sets/"+detail.WorshipSet.ID+"/assignments").
		WithBody(model.CreateAssignmentRequest{InstrumentID: bass.ID, UserID: musician.ID}), admin)
	helpers.AssertStatus(t, resp, http.StatusCreated)
	var assignment model.Assignment
	helpers.DecodeData(t, resp, &assignment)

	respond := model.RespondAssignmentRequest{Status: model.AssignmentStatusAccepted}
	resp = e.do(t, helpers.NewRequest(t, http.MethodPost, "/v1/assignments/"+assignment.ID+"/respond").WithBody(respond), bystander)
	helpers.AssertStatus(t, resp, http.StatusForbidden)

	resp = e.do(t, helpers.NewRequest(t, http.MethodPost, "/v1/assignments/"+assignment.ID+"/respond").WithBody(respond), musician)
	helpers.AssertStatus(t, resp, http.StatusOK)

	resp = e.do(t, helpers.NewRequest(t, http.MethodGet, "/v1/me/assignments?from=2025-03-01"), musician)
	helpers.AssertStatus(t, resp, http.StatusOK)
	assert.Contains(t, resp.Body.String(), assignment.ID)

	resp = e.do(t, helpers.NewRequest(t, http.MethodGet, "/v1/me/notifications"), musician)
	helpers.AssertStatus(t, resp, http.StatusOK)
	var notes []model.NotificationLog
	helpers.DecodeData(t, resp, &notes)
	assert.NotEmpty(t, notes)
}

func TestRouter_AvailabilityBlocksAssignment(t *testing.T) {
	t.Parallel()
	e := newAPI(t)
	admin := e.user(t, "Uma", model.UserRoleAdmin)
	musician := e.user(t, "Vic", model.UserRoleMusician)
	st := e.sundayType(t)
	svc := e.service(t, st.ID, "2025-03-09")

	resp := e.do(t, helpers.NewRequest(t, http.MethodPost, "/v1/me/availability").
		WithBody(model.CreateAvailabilityRequest{Date: "2025-03-09"}), musician)
	helpers.AssertStatus(t, resp, http.StatusCreated)

	resp = e.do(t, helpers.NewRequest(t, http.MethodGet, "/v1/availability?date=2025-03-09"), musician)
	helpers.AssertProblemDetails(t, resp, http.StatusForbidden, model.ErrCodeRoleMissing)

	resp = e.do(t, helpers.NewRequest(t, http.MethodGet, "/v1/availability?date=2025-03-09"), admin)
	helpers.AssertStatus(t, resp, http.StatusOK)
	assert.Contains(t, resp.Body.String(), musician.ID)

	resp = e.do(t, helpers.NewRequest(t, http.MethodPost, "/v1/instruments").
		WithBody(model.CreateInstrumentRequest{Name: "Drums"}), admin)
	var drums model.Instrument
	helpers.DecodeData(t, resp, &drums)

	resp = e.do(t, helpers.NewRequest(t, http.MethodPost, "/v1/services/"+svc.ID+"/worship-set").
		WithBody(model.CreateWorshipSetRequest{LeaderID: &admin.ID}), admin)
	var detail model.WorshipSetDetail
	helpers.DecodeData(t, resp, &detail)

	resp = e.do(t, helpers.NewRequest(t, http.MethodPost, "/v1/worship-sets/"+detail.WorshipSet.ID+"/assignments").
		WithBody(model.CreateAssignmentRequest{InstrumentID: drums.ID, UserID: musician.ID}), admin)
	helpers.AssertProblemDetails(t, resp, http.StatusConflict, model.ErrCodeConflict)
}
