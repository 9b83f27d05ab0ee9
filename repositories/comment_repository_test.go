package repositories

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"inkwell-api/models"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.CommentInteraction{},
		&models.CommentReport{},
	))

	return db
}

func createUser(t *testing.T, db *gorm.DB, username string, role models.Role) *models.User {
	t.Helper()
	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "not-a-real-hash",
		Role:         role,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createPost(t *testing.T, db *gorm.DB, author *models.User, slug string) *models.Post {
	t.Helper()
	post := models.Post{
		Title:    "Post " + slug,
		Slug:     slug,
		Content:  "body",
		Status:   models.PostPublished,
		AuthorID: author.ID,
	}
	require.NoError(t, db.Create(&post).Error)
	return &post
}

func TestCreateCommentModerationStatus(t *testing.T) {
	db := setupDB(t)
	repo := NewCommentRepository(db)

	author := createUser(t, db, "author", models.RoleAuthor)
	reader := createUser(t, db, "reader", models.RoleReader)
	editor := createUser(t, db, "editor", models.RoleEditor)
	post := createPost(t, db, author, "first-post")

	tests := []struct {
		name  string
		actor *models.User
		want  models.CommentStatus
	}{
		{"reader comments start pending", reader, models.CommentPending},
		{"author comments start pending", author, models.CommentPending},
		{"editor comments start approved", editor, models.CommentApproved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comment, err := repo.Create(post.ID, tt.actor, "hello", nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, comment.Status)
			assert.Equal(t, tt.actor.ID, comment.User.ID)
		})
	}
}

func TestCreateCommentMissingPost(t *testing.T) {
	db := setupDB(t)
	repo := NewCommentRepository(db)
	reader := createUser(t, db, "reader", models.RoleReader)

	_, err := repo.Create(9999, reader, "hello", nil)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestCreateReplyParentMustBelongToPost(t *testing.T) {
	db := setupDB(t)
	repo := NewCommentRepository(db)

	author := createUser(t, db, "author", models.RoleAuthor)
	editor := createUser(t, db, "editor", models.RoleEditor)
	postA := createPost(t, db, author, "post-a")
	postB := createPost(t, db, author, "post-b")

	parent, err := repo.Create(postA.ID, editor, "parent", nil)
	require.NoError(t, err)

	// Parent lives on post A, reply targets post B.
	_, err = repo.Create(postB.ID, editor, "reply", &parent.ID)
	assert.ErrorIs(t, err, ErrParentNotFound)

	missing := uint(9999)
	_, err = repo.Create(postA.ID, editor, "reply", &missing)
	assert.ErrorIs(t, err, ErrParentNotFound)

	reply, err := repo.Create(postA.ID, editor, "reply", &parent.ID)
	require.NoError(t, err)
	assert.Equal(t, &parent.ID, reply.ParentID)

	fetched, err := repo.GetByID(parent.ID, 0)
	require.NoError(t, err)
	require.Len(t, fetched.Replies, 1)
	require.NotNil(t, fetched.Post)
	assert.Equal(t, postA.Slug, fetched.Post.Slug)
}

func TestReactInsertToggleAndSwitch(t *testing.T) {
	db := setupDB(t)
	repo := NewCommentRepository(db)

	author := createUser(t, db, "author", models.RoleAuthor)
	voter := createUser(t, db, "voter", models.RoleReader)
	post := createPost(t, db, author, "voting-post")
	comment, err := repo.Create(post.ID, author, "rate me", nil)
	require.NoError(t, err)

	// First like inserts a ledger row and bumps the counter.
	updated, err := repo.React(comment.ID, voter, models.ActionLike)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Likes)
	assert.Equal(t, 0, updated.Dislikes)
	require.NotNil(t, updated.UserInteraction)
	assert.Equal(t, models.ActionLike, *updated.UserInteraction)

	// Switching sides moves exactly one count across.
	updated, err = repo.React(comment.ID, voter, models.ActionDislike)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Likes)
	assert.Equal(t, 1, updated.Dislikes)
	require.NotNil(t, updated.UserInteraction)
	assert.Equal(t, models.ActionDislike, *updated.UserInteraction)

	// Repeating the same action toggles it off entirely.
	updated, err = repo.React(comment.ID, voter, models.ActionDislike)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Likes)
	assert.Equal(t, 0, updated.Dislikes)
	assert.Nil(t, updated.UserInteraction)

	var ledger int64
	db.Model(&models.CommentInteraction{}).Where("comment_id = ?", comment.ID).Count(&ledger)
	assert.Zero(t, ledger)
}

func TestReactRejectsSelfAndUnknownAction(t *testing.T) {
	db := setupDB(t)
	repo := NewCommentRepository(db)

	author := createUser(t, db, "author", models.RoleAuthor)
	voter := createUser(t, db, "voter", models.RoleReader)
	post := createPost(t, db, author, "self-post")
	comment, err := repo.Create(post.ID, author, "mine", nil)
	require.NoError(t, err)

	_, err = repo.React(comment.ID, author, models.ActionLike)
	assert.ErrorIs(t, err, ErrSelfInteraction)

	_, err = repo.React(comment.ID, voter, "upvote")
	assert.ErrorIs(t, err, ErrInvalidAction)

	_, err = repo.React(9999, voter, models.ActionLike)
	assert.ErrorIs(t, err, ErrCommentNotFound)
}

func TestReactGuardsSkipCountersWhenRowAlreadyChanged(t *testing.T) {
	db := setupDB(t)
	repo := NewCommentRepository(db)

	author := createUser(t, db, "author", models.RoleAuthor)
	voter := createUser(t, db, "voter", models.RoleReader)
	post := createPost(t, db, author, "raced-post")
	comment, err := repo.Create(post.ID, author, "contested", nil)
	require.NoError(t, err)

	_, err = repo.React(comment.ID, voter, models.ActionLike)
	require.NoError(t, err)

	// A second toggle-off that read the row before the first one committed
	// finds it gone. Its delete must affect nothing and leave the counter
	// alone instead of driving it negative.
	require.NoError(t, db.
		Where("comment_id = ? AND user_id = ?", comment.ID, voter.ID).
		Delete(&models.CommentInteraction{}).Error)
	require.NoError(t, adjustCounter(db, comment.ID, models.ActionLike, -1))

	err = toggleOff(db, comment.ID, voter.ID, models.ActionLike)
	assert.ErrorIs(t, err, ErrAlreadyInteracted)

	var stored models.Comment
	require.NoError(t, db.First(&stored, comment.ID).Error)
	assert.Equal(t, 0, stored.Likes)
	assert.Equal(t, 0, stored.Dislikes)

	// Same for a flip whose opposite-action row no longer exists.
	err = switchAction(db, comment.ID, voter.ID, models.ActionDislike)
	assert.ErrorIs(t, err, ErrAlreadyInteracted)

	require.NoError(t, db.First(&stored, comment.ID).Error)
	assert.Equal(t, 0, stored.Likes)
	assert.Equal(t, 0, stored.Dislikes)

	// And for a flip that lost to an identical flip: the row already carries
	// the target action, so the guarded update matches nothing.
	_, err = repo.React(comment.ID, voter, models.ActionDislike)
	require.NoError(t, err)
	err = switchAction(db, comment.ID, voter.ID, models.ActionDislike)
	assert.ErrorIs(t, err, ErrAlreadyInteracted)

	require.NoError(t, db.First(&stored, comment.ID).Error)
	assert.Equal(t, 0, stored.Likes)
	assert.Equal(t, 1, stored.Dislikes)
}

func TestCountersStayConsistentWithLedger(t *testing.T) {
	db := setupDB(t)
	repo := NewCommentRepository(db)

	author := createUser(t, db, "author", models.RoleAuthor)
	post := createPost(t, db, author, "busy-post")
	comment, err := repo.Create(post.ID, author, "popular", nil)
	require.NoError(t, err)

	voters := make([]*models.User, 6)
	for i := range voters {
		voters[i] = createUser(t, db, fmt.Sprintf("voter%d", i), models.RoleReader)
	}

	for i, voter := range voters {
		action := models.ActionLike
		if i%2 == 1 {
			action = models.ActionDislike
		}
		_, err := repo.React(comment.ID, voter, action)
		require.NoError(t, err)
	}
	// One voter flips, one toggles off.
	_, err = repo.React(comment.ID, voters[0], models.ActionDislike)
	require.NoError(t, err)
	_, err = repo.React(comment.ID, voters[1], models.ActionDislike)
	require.NoError(t, err)

	var stored models.Comment
	require.NoError(t, db.First(&stored, comment.ID).Error)

	var likeRows, dislikeRows int64
	db.Model(&models.CommentInteraction{}).
		Where("comment_id = ? AND action = ?", comment.ID, models.ActionLike).Count(&likeRows)
	db.Model(&models.CommentInteraction{}).
		Where("comment_id = ? AND action = ?", comment.ID, models.ActionDislike).Count(&dislikeRows)

	assert.Equal(t, int(likeRows), stored.Likes)
	assert.Equal(t, int(dislikeRows), stored.Dislikes)
}

func TestReportOncePerUser(t *testing.T) {
	db := setupDB(t)
	repo := NewCommentRepository(db)

	author := createUser(t, db, "author", models.RoleAuthor)
	reporter := createUser(t, db, "reporter", models.RoleReader)
	other := createUser(t, db, "other", models.RoleReader)
	post := createPost(t, db, author, "reported-post")
	comment, err := repo.Create(post.ID, author, "spam", nil)
	require.NoError(t, err)

	require.NoError(t, repo.Report(comment.ID, reporter, "spam"))

	var stored models.Comment
	require.NoError(t, db.First(&stored, comment.ID).Error)
	assert.True(t, stored.Reported)
	assert.Equal(t, 1, stored.ReportedCount)

	// Duplicate reports are rejected and leave the counter untouched.
	err = repo.Report(comment.ID, reporter, "still spam")
	assert.ErrorIs(t, err, ErrAlreadyReported)

	require.NoError(t, repo.Report(comment.ID, other, "agree"))

	require.NoError(t, db.First(&stored, comment.ID).Error)
	assert.Equal(t, 2, stored.ReportedCount)

	var reports int64
	db.Model(&models.CommentReport{}).Where("comment_id = ?", comment.ID).Count(&reports)
	assert.EqualValues(t, 2, reports)
}

func TestListForPostFiltersAndAttaches(t *testing.T) {
	db := setupDB(t)
	repo := NewCommentRepository(db)

	author := createUser(t, db, "author", models.RoleAuthor)
	editor := createUser(t, db, "editor", models.RoleEditor)
	viewer := createUser(t, db, "viewer", models.RoleReader)
	post := createPost(t, db, author, "listed-post")

	first, err := repo.Create(post.ID, editor, "first", nil)
	require.NoError(t, err)
	second, err := repo.Create(post.ID, editor, "second", nil)
	require.NoError(t, err)
	_, err = repo.Create(post.ID, viewer, "pending one", nil)
	require.NoError(t, err)
	reply, err := repo.Create(post.ID, editor, "a reply", &first.ID)
	require.NoError(t, err)

	_, err = repo.React(second.ID, viewer, models.ActionLike)
	require.NoError(t, err)

	comments, err := repo.ListForPost(post.ID, "", "oldest", viewer.ID)
	require.NoError(t, err)

	// Pending comments and replies are excluded from the top level.
	require.Len(t, comments, 2)
	assert.Equal(t, first.ID, comments[0].ID)
	assert.Equal(t, second.ID, comments[1].ID)

	require.Len(t, comments[0].Replies, 1)
	assert.Equal(t, reply.ID, comments[0].Replies[0].ID)
	assert.Empty(t, comments[1].Replies)

	assert.Nil(t, comments[0].UserInteraction)
	require.NotNil(t, comments[1].UserInteraction)
	assert.Equal(t, models.ActionLike, *comments[1].UserInteraction)

	pending, err := repo.ListForPost(post.ID, models.CommentPending, "newest", 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "pending one", pending[0].Content)

	_, err = repo.ListForPost(post.ID, "bogus", "newest", 0)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateCommentPermissions(t *testing.T) {
	db := setupDB(t)
	repo := NewCommentRepository(db)

	owner := createUser(t, db, "owner", models.RoleReader)
	editor := createUser(t, db, "editor", models.RoleEditor)
	stranger := createUser(t, db, "stranger", models.RoleReader)
	post := createPost(t, db, editor, "edited-post")

	comment, err := repo.Create(post.ID, owner, "original", nil)
	require.NoError(t, err)
	require.Equal(t, models.CommentPending, comment.Status)

	newContent := "edited"
	approved := models.CommentApproved

	// Owner can edit content, but a status from a non-privileged owner is
	// ignored rather than rejected.
	updated, err := repo.Update(comment.ID, owner, &newContent, &approved)
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)
	assert.Equal(t, models.CommentPending, updated.Status)

	updated, err = repo.Update(comment.ID, editor, nil, &approved)
	require.NoError(t, err)
	assert.Equal(t, models.CommentApproved, updated.Status)

	_, err = repo.Update(comment.ID, stranger, &newContent, nil)
	assert.Error(t, err)

	bad := models.CommentStatus("bogus")
	_, err = repo.Update(comment.ID, editor, nil, &bad)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestDeleteCommentClearsLedgers(t *testing.T) {
	db := setupDB(t)
	repo := NewCommentRepository(db)

	owner := createUser(t, db, "owner", models.RoleReader)
	voter := createUser(t, db, "voter", models.RoleReader)
	stranger := createUser(t, db, "stranger", models.RoleReader)
	editor := createUser(t, db, "editor", models.RoleEditor)
	post := createPost(t, db, editor, "deleted-post")

	comment, err := repo.Create(post.ID, owner, "going away", nil)
	require.NoError(t, err)
	_, err = repo.React(comment.ID, voter, models.ActionLike)
	require.NoError(t, err)
	require.NoError(t, repo.Report(comment.ID, voter, "meh"))

	err = repo.Delete(comment.ID, stranger)
	assert.Error(t, err)

	require.NoError(t, repo.Delete(comment.ID, owner))

	var comments, interactions, reports int64
	db.Model(&models.Comment{}).Where("id = ?", comment.ID).Count(&comments)
	db.Model(&models.CommentInteraction{}).Where("comment_id = ?", comment.ID).Count(&interactions)
	db.Model(&models.CommentReport{}).Where("comment_id = ?", comment.ID).Count(&reports)
	assert.Zero(t, comments)
	assert.Zero(t, interactions)
	assert.Zero(t, reports)

	assert.ErrorIs(t, repo.Delete(comment.ID, owner), ErrCommentNotFound)
}
