package folder

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type repository interface {
	Create(ctx context.Context, f Folder) (Folder, error)
	Get(ctx context.Context, ownerID, folderID uuid.UUID) (Folder, error)
	ListChildren(ctx context.Context, ownerID uuid.UUID, parentID *uuid.UUID) ([]Folder, error)
	Update(ctx context.Context, ownerID, folderID uuid.UUID, name, description, color *string) error
	SoftDelete(ctx context.Context, ownerID, folderID uuid.UUID) (bool, error)
}

// Service manages the folder hierarchy.
type Service struct {
	repo    repository
	files   FileIndex
	objects ObjectRemover
	log     *zap.Logger
}

// NewService constructs a folder service.
func NewService(repo repository, files FileIndex, objects ObjectRemover, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, files: files, objects: objects, log: log}
}

// CreateInput carries folder creation data.
type CreateInput struct {
	Name           string
	ParentFolderID *uuid.UUID
	Description    *string
	Color          *string
}

// CreateFolder validates the input, verifies the parent when given, and
// persists a new folder.
func (s *Service) CreateFolder(ctx context.Context, ownerID uuid.UUID, input CreateInput) (Folder, error) {
	name := strings.TrimSpace(input.Name)
	if err := ValidateName(name); err != nil {
		return Folder{}, err
	}

	color := DefaultColor
	if input.Color != nil {
		if err := ValidateColor(*input.Color); err != nil {
			return Folder{}, err
		}
		color = *input.Color
	}

	if input.ParentFolderID != nil {
		if _, err := s.repo.Get(ctx, ownerID, *input.ParentFolderID); err != nil {
			if err == ErrFolderNotFound {
				return Folder{}, ErrParentNotFound
			}
			return Folder{}, err
		}
	}

	return s.repo.Create(ctx, Folder{
		ID:             uuid.New(),
		OwnerID:        ownerID,
		ParentFolderID: input.ParentFolderID,
		Name:           name,
		Description:    input.Description,
		Color:          color,
	})
}

// ProvisionRoot creates the account's root folder. Called once at
// registration time.
func (s *Service) ProvisionRoot(ctx context.Context, ownerID uuid.UUID) error {
	_, err := s.repo.Create(ctx, Folder{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Name:    RootFolderName,
		Color:   DefaultColor,
	})
	return err
}

// ListFolders returns the owner's folders under the given parent (nil lists
// roots), each eagerly loaded one level deep with subfolders and files.
func (s *Service) ListFolders(ctx context.Context, ownerID uuid.UUID, parentID *uuid.UUID) ([]Folder, error) {
	folders, err := s.repo.ListChildren(ctx, ownerID, parentID)
	if err != nil {
		return nil, err
	}

	for i := range folders {
		children, err := s.repo.ListChildren(ctx, ownerID, &folders[i].ID)
		if err != nil {
			return nil, err
		}
		files, err := s.files.ListEntries(ctx, ownerID, folders[i].ID)
		if err != nil {
			return nil, err
		}
		folders[i].Folders = children
		folders[i].Files = files
		for _, f := range files {
			folders[i].TotalFileCount++
			folders[i].TotalSizeBytes += f.SizeBytes
		}
	}

	return folders, nil
}

// GetFolder returns the folder with its full non-deleted subtree and files,
// plus subtree totals folded over the tree.
func (s *Service) GetFolder(ctx context.Context, ownerID, folderID uuid.UUID) (Folder, error) {
	root, err := s.repo.Get(ctx, ownerID, folderID)
	if err != nil {
		return Folder{}, err
	}

	if err := s.loadSubtree(ctx, ownerID, &root); err != nil {
		return Folder{}, err
	}
	return root, nil
}

// loadSubtree attaches children and files to every node under f using an
// explicit work-list so deep trees cannot exhaust the call stack.
func (s *Service) loadSubtree(ctx context.Context, ownerID uuid.UUID, f *Folder) error {
	stack := []*Folder{f}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		files, err := s.files.ListEntries(ctx, ownerID, node.ID)
		if err != nil {
			return err
		}
		node.Files = files

		children, err := s.repo.ListChildren(ctx, ownerID, &node.ID)
		if err != nil {
			return err
		}
		node.Folders = children
		for i := range node.Folders {
			stack = append(stack, &node.Folders[i])
		}
	}

	foldTotals(f)
	return nil
}

// foldTotals computes subtree file counts and sizes bottom-up without
// recursion: children are summed after they have been processed.
func foldTotals(root *Folder) {
	// Post-order over an explicit stack: push each node twice, compute on the
	// second visit once all children are done.
	type frame struct {
		node    *Folder
		visited bool
	}
	stack := []frame{{node: root}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !top.visited {
			stack = append(stack, frame{node: top.node, visited: true})
			for i := range top.node.Folders {
				stack = append(stack, frame{node: &top.node.Folders[i]})
			}
			continue
		}

		var count, size int64
		for _, f := range top.node.Files {
			count++
			size += f.SizeBytes
		}
		for i := range top.node.Folders {
			count += top.node.Folders[i].TotalFileCount
			size += top.node.Folders[i].TotalSizeBytes
		}
		top.node.TotalFileCount = count
		top.node.TotalSizeBytes = size
	}
}

// UpdateInput carries partial folder updates; nil fields are left unchanged.
type UpdateInput struct {
	Name        *string
	Description *string
	Color       *string
}

// UpdateFolder applies only the changed fields to a live folder.
func (s *Service) UpdateFolder(ctx context.Context, ownerID, folderID uuid.UUID, input UpdateInput) error {
	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		if err := ValidateName(trimmed); err != nil {
			return err
		}
		input.Name = &trimmed
	}
	if input.Color != nil {
		if err := ValidateColor(*input.Color); err != nil {
			return err
		}
	}

	return s.repo.Update(ctx, ownerID, folderID, input.Name, input.Description, input.Color)
}

// DeleteFolder soft-deletes the folder and its entire subtree: files first,
// then subfolders depth-first, then the folder itself. Object bytes are
// removed best-effort. Returns false when the folder is absent, foreign, or
// already deleted; callers translate that to NotFound.
func (s *Service) DeleteFolder(ctx context.Context, ownerID, folderID uuid.UUID) (bool, error) {
	root, err := s.repo.Get(ctx, ownerID, folderID)
	if err != nil {
		if err == ErrFolderNotFound {
			return false, nil
		}
		return false, err
	}

	// Collect the subtree with an explicit work-list, recording folders in
	// discovery order so reversing yields children before their parents.
	order := []uuid.UUID{root.ID}
	queue := []uuid.UUID{root.ID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		children, err := s.repo.ListChildren(ctx, ownerID, &current)
		if err != nil {
			return false, err
		}
		for _, child := range children {
			order = append(order, child.ID)
			queue = append(queue, child.ID)
		}
	}

	// Depth-first delete: deepest folders go first, the root last, so a crash
	// mid-cascade never leaves an invisible parent above visible children.
	rootDeleted := false
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]

		deletedFiles, err := s.files.SoftDeleteByFolder(ctx, ownerID, id)
		if err != nil {
			return false, err
		}
		for _, df := range deletedFiles {
			if df.StorageKey == "" {
				continue
			}
			if err := s.objects.DeleteObject(ctx, df.StorageKey); err != nil {
				// Best effort: the row is already soft-deleted, so surface the
				// orphaned bytes to operators instead of failing the cascade.
				s.log.Warn("delete object after folder cascade",
					zap.String("storage_key", df.StorageKey),
					zap.Error(err))
			}
		}

		changed, err := s.repo.SoftDelete(ctx, ownerID, id)
		if err != nil {
			return false, err
		}
		if id == root.ID {
			// A concurrent cascade may have won the race on the root; report
			// false so the caller answers NotFound rather than double-success.
			rootDeleted = changed
		}
	}

	return rootDeleted, nil
}
