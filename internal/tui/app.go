package tui

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/croissant/internal/database/repository"
	"github.com/jask/croissant/internal/service"
)

// App is the followed-users screen plus the cached feed it links to.
type App struct {
	ctx      context.Context
	services Services
	opts     Options
	worker   *worker
	keys     keyMap
	help     help.Model

	state viewState

	users     []service.FollowUser
	loaded    bool
	cursor    int
	filtering bool
	filter    string

	posts           []repository.Post
	authorFollowing map[string]bool
	postCursor      int

	confirmReset bool

	toast    string
	toastErr bool
	toastSeq int

	width int
}

type Services struct {
	Follow      *service.FollowService
	Feed        *service.FeedService
	Maintenance *service.MaintenanceService
}

// Options holds presentation settings.
type Options struct {
	ToastDuration time.Duration
	DateFormat    string
	FeedCount     int
}

type viewState int

const (
	viewFollowing viewState = iota
	viewFeed
)

func New(ctx context.Context, services Services, opts Options) *App {
	if opts.ToastDuration <= 0 {
		opts.ToastDuration = 2 * time.Second
	}
	if opts.DateFormat == "" {
		opts.DateFormat = "2006-01-02"
	}
	return &App{
		ctx:      ctx,
		services: services,
		opts:     opts,
		worker:   newWorker(ctx),
		keys:     newKeyMap(),
		help:     help.New(),
	}
}

// Close waits for queued writes to finish. Call it after the program exits.
func (a *App) Close() error {
	return a.worker.close()
}

func (a *App) Init() tea.Cmd {
	return a.loadFollowing()
}

// messages
type followListMsg []service.FollowUser

type followSavedMsg struct{ user service.FollowUser }

type followFailedMsg struct {
	user service.FollowUser
	err  error
}

type feedMsg struct {
	posts     []repository.Post
	following map[string]bool
}

type postUpdatedMsg struct{ post repository.Post }

type authorToggledMsg struct {
	author    repository.Author
	following bool
}

type resetDoneMsg struct{}

type toastExpiredMsg struct{ seq int }

type errMsg struct {
	op  string
	err error
}

func (e errMsg) Error() string { return e.op + ": " + e.err.Error() }

// commands
func (a *App) loadFollowing() tea.Cmd {
	return a.worker.do("load follow list", func(ctx context.Context) (tea.Msg, error) {
		users, err := a.services.Follow.Load(ctx)
		if err != nil {
			return nil, err
		}
		return followListMsg(users), nil
	})
}

func (a *App) persistFollow(u service.FollowUser) tea.Cmd {
	return a.worker.do("save follow", func(ctx context.Context) (tea.Msg, error) {
		if err := a.services.Follow.Apply(ctx, u); err != nil {
			return followFailedMsg{user: u, err: err}, nil
		}
		return followSavedMsg{user: u}, nil
	})
}

func (a *App) loadFeed() tea.Cmd {
	count := a.opts.FeedCount
	return a.worker.do("load cached feed", func(ctx context.Context) (tea.Msg, error) {
		posts, err := a.services.Feed.Latest(ctx, count)
		if err != nil {
			return nil, err
		}
		following := make(map[string]bool, len(posts))
		for _, p := range posts {
			if _, ok := following[p.Author.UserID]; ok {
				continue
			}
			f, err := a.services.Follow.IsFollowing(ctx, p.Author.UserID)
			if err != nil {
				return nil, err
			}
			following[p.Author.UserID] = f
		}
		return feedMsg{posts: posts, following: following}, nil
	})
}

func (a *App) toggleLike(postID string) tea.Cmd {
	return a.worker.do("like post", func(ctx context.Context) (tea.Msg, error) {
		p, err := a.services.Feed.ToggleLike(ctx, postID)
		if err != nil {
			return nil, err
		}
		return postUpdatedMsg{post: p}, nil
	})
}

func (a *App) toggleAuthor(author repository.Author) tea.Cmd {
	return a.worker.do("follow author", func(ctx context.Context) (tea.Msg, error) {
		following, err := a.services.Follow.ToggleAuthor(ctx, author)
		if err != nil {
			return nil, err
		}
		return authorToggledMsg{author: author, following: following}, nil
	})
}

func (a *App) resetCache() tea.Cmd {
	return a.worker.do("clear cache", func(ctx context.Context) (tea.Msg, error) {
		if a.services.Maintenance == nil {
			return nil, fmt.Errorf("maintenance not configured")
		}
		if err := a.services.Maintenance.Reset(ctx); err != nil {
			return nil, err
		}
		return resetDoneMsg{}, nil
	})
}

// showToast sets a transient message that clears itself after the toast duration.
func (a *App) showToast(text string, isErr bool) tea.Cmd {
	a.toast = text
	a.toastErr = isErr
	a.toastSeq++
	seq := a.toastSeq
	return tea.Tick(a.opts.ToastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{seq: seq}
	})
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = m.Width
		a.help.Width = m.Width
	case tea.KeyMsg:
		return a.handleKey(m)
	case followListMsg:
		a.users = []service.FollowUser(m)
		a.loaded = true
		a.clampCursor()
	case followSavedMsg:
		log.Printf("follow saved: %s following=%t", m.user.UserID, m.user.Following)
	case followFailedMsg:
		log.Printf("save follow %s: %v", m.user.UserID, m.err)
		if i := a.indexOf(m.user.UserID); i >= 0 && a.users[i].Following == m.user.Following {
			a.users[i].Following = !m.user.Following
		}
		return a, a.showToast("Could not update "+displayName(m.user)+": "+m.err.Error(), true)
	case feedMsg:
		a.posts = m.posts
		a.authorFollowing = m.following
		if a.postCursor >= len(a.posts) {
			a.postCursor = 0
		}
	case postUpdatedMsg:
		for i := range a.posts {
			if a.posts[i].PostID == m.post.PostID {
				a.posts[i] = m.post
			}
		}
		verb := "Unliked "
		if m.post.IsLiked {
			verb = "Liked "
		}
		return a, a.showToast(verb+m.post.Title, false)
	case authorToggledMsg:
		if a.authorFollowing == nil {
			a.authorFollowing = map[string]bool{}
		}
		a.authorFollowing[m.author.UserID] = m.following
		verb := "Unfollowed "
		if m.following {
			verb = "Followed "
		}
		return a, a.showToast(verb+m.author.Nickname, false)
	case resetDoneMsg:
		a.posts = nil
		return a, tea.Batch(a.loadFollowing(), a.showToast("Cache cleared", false))
	case toastExpiredMsg:
		if m.seq == a.toastSeq {
			a.toast = ""
			a.toastErr = false
		}
	case errMsg:
		log.Printf("%v", m)
		return a, a.showToast(m.Error(), true)
	}
	return a, nil
}

func (a *App) handleKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.confirmReset {
		switch {
		case key.Matches(m, a.keys.Confirm):
			a.confirmReset = false
			return a, a.resetCache()
		case key.Matches(m, a.keys.Cancel):
			a.confirmReset = false
		}
		return a, nil
	}
	if a.filtering {
		return a.handleFilterKey(m)
	}
	if key.Matches(m, a.keys.Quit) {
		return a, tea.Quit
	}
	if a.state == viewFeed {
		return a.handleFeedKey(m)
	}
	return a.handleFollowingKey(m)
}

func (a *App) handleFollowingKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(m, a.keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}
	case key.Matches(m, a.keys.Down):
		if a.cursor < len(a.visibleUsers())-1 {
			a.cursor++
		}
	case key.Matches(m, a.keys.Toggle):
		return a, a.toggleSelected()
	case key.Matches(m, a.keys.Reload):
		return a, a.loadFollowing()
	case key.Matches(m, a.keys.Filter):
		a.filtering = true
	case key.Matches(m, a.keys.Feed):
		a.state = viewFeed
		return a, a.loadFeed()
	case key.Matches(m, a.keys.Reset):
		a.confirmReset = true
	case key.Matches(m, a.keys.Back):
		if a.filter != "" {
			a.filter = ""
			a.clampCursor()
		}
	}
	return a, nil
}

func (a *App) handleFilterKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.Type {
	case tea.KeyEsc:
		a.filtering = false
		a.filter = ""
	case tea.KeyEnter:
		a.filtering = false
	case tea.KeyBackspace:
		if r := []rune(a.filter); len(r) > 0 {
			a.filter = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		a.filter += " "
	case tea.KeyRunes:
		a.filter += string(m.Runes)
	case tea.KeyCtrlC:
		return a, tea.Quit
	}
	a.cursor = 0
	return a, nil
}

func (a *App) handleFeedKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(m, a.keys.Up):
		if a.postCursor > 0 {
			a.postCursor--
		}
	case key.Matches(m, a.keys.Down):
		if a.postCursor < len(a.posts)-1 {
			a.postCursor++
		}
	case key.Matches(m, a.keys.Like):
		if p := a.selectedPost(); p != nil {
			return a, a.toggleLike(p.PostID)
		}
	case key.Matches(m, a.keys.Author):
		if p := a.selectedPost(); p != nil && p.Author.UserID != "" {
			return a, a.toggleAuthor(p.Author)
		}
	case key.Matches(m, a.keys.Back):
		// coming back to the list resumes it, which always re-reads the cache
		a.state = viewFollowing
		return a, a.loadFollowing()
	}
	return a, nil
}

// toggleSelected flips the selected user in memory straight away and leaves
// the writes to the worker.
func (a *App) toggleSelected() tea.Cmd {
	visible := a.visibleUsers()
	if a.cursor < 0 || a.cursor >= len(visible) {
		return nil
	}
	i := a.indexOf(visible[a.cursor].UserID)
	if i < 0 {
		return nil
	}
	a.users[i].Following = !a.users[i].Following
	u := a.users[i]
	text := "Unfollowed " + displayName(u)
	if u.Following {
		text = "Followed " + displayName(u)
	}
	return tea.Batch(a.persistFollow(u), a.showToast(text, false))
}

// displayName falls back to the user ID for users without a nickname.
func displayName(u service.FollowUser) string {
	if u.Username != "" {
		return u.Username
	}
	return u.UserID
}

func (a *App) visibleUsers() []service.FollowUser {
	return service.Filter(a.users, a.filter)
}

func (a *App) indexOf(userID string) int {
	for i, u := range a.users {
		if u.UserID == userID {
			return i
		}
	}
	return -1
}

func (a *App) clampCursor() {
	if n := len(a.visibleUsers()); a.cursor >= n {
		a.cursor = max(n-1, 0)
	}
}

func (a *App) selectedPost() *repository.Post {
	if a.postCursor < 0 || a.postCursor >= len(a.posts) {
		return nil
	}
	return &a.posts[a.postCursor]
}

// followingCount is the number shown in the header.
func (a *App) followingCount() int {
	return service.FollowingCount(a.users)
}

// listVisible reports whether the user list is shown; the empty-state panel
// is shown exactly when it is not.
func (a *App) listVisible() bool {
	return a.followingCount() > 0
}

func (a *App) emptyStateVisible() bool {
	return !a.listVisible()
}
