package internal

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-git/go-billy/v5"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

const (
	DefaultCommitMessage = "template folders"
	DefaultAuthorName    = "dsscaffold"
	DefaultAuthorEmail   = "dsscaffold@localhost"
)

// ErrVersionControl marks failures while initializing or committing the
// generated repository.
var ErrVersionControl = errors.New("version control error")

// CommitOptions configure the initial commit. Empty author fields are looked
// up in the global git configuration, then fall back to the defaults.
type CommitOptions struct {
	Message string
	Author  string
	Email   string
	When    time.Time
	// Reuse commits into an existing repository instead of failing. Nothing
	// is committed when the work tree has no changes.
	Reuse bool
}

// InitRepository initializes a git repository whose work tree is worktree
// and whose objects live in storer, stages every file and commits it. It
// returns the hash of the commit.
func InitRepository(worktree billy.Filesystem, storer storage.Storer, opts CommitOptions) (string, error) {
	repo, err := git.Init(storer, worktree)
	if errors.Is(err, git.ErrRepositoryAlreadyExists) && opts.Reuse {
		repo, err = git.Open(storer, worktree)
	}
	if err != nil {
		return "", errors.Mark(errors.Wrap(err, "failed to initialize repository"), ErrVersionControl)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return "", errors.Mark(errors.Wrap(err, "failed to open work tree"), ErrVersionControl)
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return "", errors.Mark(errors.Wrap(err, "failed to stage files"), ErrVersionControl)
	}

	status, err := wt.Status()
	if err != nil {
		return "", errors.Mark(errors.Wrap(err, "failed to read status"), ErrVersionControl)
	}
	if status.IsClean() {
		if head, err := repo.Head(); err == nil {
			return head.Hash().String(), nil
		}
	}

	if opts.Message == "" {
		opts.Message = DefaultCommitMessage
	}
	if opts.When.IsZero() {
		opts.When = time.Now()
	}
	name, email := signature(opts.Author, opts.Email)

	hash, err := wt.Commit(opts.Message, &git.CommitOptions{
		Author: &object.Signature{Name: name, Email: email, When: opts.When},
	})
	if err != nil {
		return "", errors.Mark(errors.Wrap(err, "failed to commit"), ErrVersionControl)
	}
	return hash.String(), nil
}

// InitRepositoryAt initializes the repository in the directory root of fs,
// with its metadata in root/.git.
func InitRepositoryAt(fs billy.Filesystem, root string, opts CommitOptions) (string, error) {
	worktree, err := fs.Chroot(root)
	if err != nil {
		return "", errors.Mark(errors.Wrapf(err, "cannot open %s", root), ErrVersionControl)
	}
	dot, err := worktree.Chroot(git.GitDirName)
	if err != nil {
		return "", errors.Mark(errors.Wrapf(err, "cannot open %s", git.GitDirName), ErrVersionControl)
	}
	storer := filesystem.NewStorage(dot, cache.NewObjectLRUDefault())
	return InitRepository(worktree, storer, opts)
}

// Identity fills an empty name or email from the global git configuration.
// Both stay empty when git has no user configured.
func Identity(name, email string) (string, string) {
	if name != "" && email != "" {
		return name, email
	}
	if cfg, err := config.LoadConfig(config.GlobalScope); err == nil {
		if name == "" {
			name = cfg.User.Name
		}
		if email == "" {
			email = cfg.User.Email
		}
	}
	return name, email
}

func signature(name, email string) (string, string) {
	name, email = Identity(name, email)
	if name == "" {
		name = DefaultAuthorName
	}
	if email == "" {
		email = DefaultAuthorEmail
	}
	return name, email
}
