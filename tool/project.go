package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/donkit-ai/ragops-agent/schema"
	"github.com/donkit-ai/ragops-agent/store"
)

// ProjectKeyPrefix namespaces project state in the key-value store.
const ProjectKeyPrefix = "project_"

// LoadedFile records one file loaded into the vector store for a project.
type LoadedFile struct {
	Path        string `json:"path"`
	Status      string `json:"status"`
	ChunksCount int    `json:"chunks_count,omitempty"`
}

// ProjectState is the persisted state of one RAG project.
type ProjectState struct {
	ProjectID      string       `json:"project_id"`
	Goal           string       `json:"goal"`
	Checklist      []string     `json:"checklist"`
	Status         string       `json:"status"`
	Configuration  *RagConfig   `json:"configuration"`
	ChunksPath     string       `json:"chunks_path,omitempty"`
	CollectionName string       `json:"collection_name,omitempty"`
	LoadedFiles    []LoadedFile `json:"loaded_files"`
}

func projectKey(projectID string) string {
	return ProjectKeyPrefix + projectID
}

// ProjectTools returns the project CRUD tool set backed by db.
func ProjectTools(db *store.DB) []Tool {
	return []Tool{
		CreateProject(db),
		GetProject(db),
		ListProjects(db),
		DeleteProject(db),
		SaveRagConfig(db),
		GetRagConfig(db),
		AddLoadedFiles(db),
		ListLoadedFiles(db),
	}
}

func loadProject(ctx context.Context, db *store.DB, projectID string) (*ProjectState, error) {
	raw, ok, err := db.Get(ctx, projectKey(projectID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var state ProjectState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("corrupt project state for %q: %w", projectID, err)
	}
	return &state, nil
}

func saveProject(ctx context.Context, db *store.DB, state *ProjectState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return db.Set(ctx, projectKey(state.ProjectID), string(data))
}

// CreateProject initializes a new project's state in the store.
func CreateProject(db *store.DB) Tool {
	return Tool{
		Name: "create_project",
		Description: "Creates a new RAG project with a given ID and goal, " +
			"initializing its state in the database.",
		Parameters: schema.Object().
			Prop("project_id", schema.String().
				Desc("A unique identifier for the project. If not provided, a random ID will be generated.")).
			Prop("goal", schema.String().Desc("The main objective of the RAG pipeline.")).
			Prop("checklist", schema.Array(schema.String()).
				Desc("A list of tasks to complete the project.")).
			Required("goal", "checklist").
			MustBuild(),
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			projectID := argString(args, "project_id", "")
			if projectID == "" {
				projectID = uuid.New().String()
			}
			goal := argString(args, "goal", "")
			if goal == "" {
				return "Error: project_id and goal are required.", nil
			}
			checklist := argStrings(args, "checklist")
			if len(checklist) == 0 {
				return "Error: checklist is required.", nil
			}

			if existing, err := loadProject(ctx, db, projectID); err != nil {
				return nil, err
			} else if existing != nil {
				return fmt.Sprintf("Error: Project '%s' already exists.", projectID), nil
			}

			state := &ProjectState{
				ProjectID:   projectID,
				Goal:        goal,
				Checklist:   checklist,
				Status:      "new",
				LoadedFiles: []LoadedFile{},
			}
			if err := saveProject(ctx, db, state); err != nil {
				return nil, err
			}
			return fmt.Sprintf("Successfully created project '%s'.", projectID), nil
		},
	}
}

// GetProject retrieves a project's state as a JSON string.
func GetProject(db *store.DB) Tool {
	return Tool{
		Name:        "get_project",
		Description: "Retrieves the current state of a RAG project from the database as a JSON string.",
		Parameters: schema.Object().
			Prop("project_id", schema.String().Desc("The ID of the project to retrieve.")).
			Required("project_id").
			MustBuild(),
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			projectID := argString(args, "project_id", "")
			if projectID == "" {
				return "Error: project_id is required.", nil
			}
			raw, ok, err := db.Get(ctx, projectKey(projectID))
			if err != nil {
				return nil, err
			}
			if !ok {
				return fmt.Sprintf("Error: Project '%s' not found.", projectID), nil
			}
			return json.RawMessage(raw), nil
		},
	}
}

// ListProjects lists every project stored in the database.
func ListProjects(db *store.DB) Tool {
	return Tool{
		Name:        "list_projects",
		Description: "Lists all RAG projects currently stored in the database.",
		Parameters:  schema.Object().MustBuild(),
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			pairs, err := db.AllByPrefix(ctx, ProjectKeyPrefix)
			if err != nil {
				return nil, err
			}
			projects := make([]json.RawMessage, 0, len(pairs))
			for _, kv := range pairs {
				projects = append(projects, json.RawMessage(kv.Value))
			}
			return projects, nil
		},
	}
}

// DeleteProject removes a project from the database.
func DeleteProject(db *store.DB) Tool {
	return Tool{
		Name: "delete_project",
		Description: "Deletes a RAG project and its stored state. " +
			"WARNING: This operation cannot be undone!",
		Parameters: schema.Object().
			Prop("project_id", schema.String().Desc("The ID of the project to delete.")).
			Required("project_id").
			MustBuild(),
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			projectID := argString(args, "project_id", "")
			if projectID == "" {
				return "Error: project_id is required.", nil
			}
			deleted, err := db.Delete(ctx, projectKey(projectID))
			if err != nil {
				return nil, err
			}
			if !deleted {
				return fmt.Sprintf("Error: Project '%s' not found.", projectID), nil
			}
			return fmt.Sprintf("Successfully deleted project '%s'.", projectID), nil
		},
	}
}

// SaveRagConfig validates and persists a RAG configuration on a project.
func SaveRagConfig(db *store.DB) Tool {
	return Tool{
		Name: "save_rag_config",
		Description: "Saves RAG configuration (from planner) to the project. " +
			"This configuration includes embedder type, chunking settings, retrieval options, etc.",
		Parameters: schema.Object().
			Prop("project_id", schema.String().
				Desc("The ID of the project to save configuration for.")).
			Prop("rag_config", schema.Object().
				Desc("The RAG configuration object (as a JSON object).")).
			Required("project_id", "rag_config").
			MustBuild(),
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			projectID := argString(args, "project_id", "")
			if projectID == "" {
				return "Error: project_id is required.", nil
			}
			rawCfg, ok := args["rag_config"]
			if !ok || rawCfg == nil {
				return "Error: rag_config is required.", nil
			}
			cfg, err := ParseRagConfig(rawCfg)
			if err != nil {
				return fmt.Sprintf("Error: Invalid rag_config. %v", err), nil
			}

			state, err := loadProject(ctx, db, projectID)
			if err != nil {
				return nil, err
			}
			if state == nil {
				return fmt.Sprintf("Error: Project '%s' not found.", projectID), nil
			}
			state.Configuration = cfg
			if err := saveProject(ctx, db, state); err != nil {
				return nil, err
			}
			return fmt.Sprintf("Successfully saved RAG configuration for project '%s'.", projectID), nil
		},
	}
}

// GetRagConfig retrieves a project's saved RAG configuration.
func GetRagConfig(db *store.DB) Tool {
	return Tool{
		Name:        "get_rag_config",
		Description: "Retrieves the saved RAG configuration for a project as JSON.",
		Parameters: schema.Object().
			Prop("project_id", schema.String().
				Desc("The ID of the project to get configuration from.")).
			Required("project_id").
			MustBuild(),
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			projectID := argString(args, "project_id", "")
			if projectID == "" {
				return "Error: project_id is required.", nil
			}
			state, err := loadProject(ctx, db, projectID)
			if err != nil {
				return nil, err
			}
			if state == nil {
				return fmt.Sprintf("Error: Project '%s' not found.", projectID), nil
			}
			if state.Configuration == nil {
				return fmt.Sprintf("No RAG configuration found for project '%s'.", projectID), nil
			}
			return state.Configuration, nil
		},
	}
}

// AddLoadedFiles records files loaded into the vector store, deduplicated by
// path.
func AddLoadedFiles(db *store.DB) Tool {
	return Tool{
		Name: "add_loaded_files",
		Description: "Add files to the list of loaded files for a project. " +
			"This tracks which files have been loaded into vectorstore. " +
			"Call this AFTER successfully loading chunks into vector database. " +
			"Pass specific file paths, not directory paths.",
		Parameters: schema.Object().
			Prop("project_id", schema.String().Desc("The ID of the project.")).
			Prop("files", schema.Array(schema.Object().
				Prop("path", schema.String().Desc("File path (required)")).
				Prop("status", schema.String().Desc("Status (optional, default: 'loaded')")).
				Prop("chunks_count", schema.Number().Desc("Number of chunks (optional)")).
				Required("path")).
				Desc("List of file metadata objects with at least 'path' field.")).
			Required("project_id", "files").
			MustBuild(),
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			projectID := argString(args, "project_id", "")
			if projectID == "" {
				return "Error: project_id is required.", nil
			}
			files, ok := args["files"].([]any)
			if !ok || len(files) == 0 {
				return "Error: files list is required.", nil
			}

			state, err := loadProject(ctx, db, projectID)
			if err != nil {
				return nil, err
			}
			if state == nil {
				return fmt.Sprintf("Error: Project '%s' not found.", projectID), nil
			}

			existing := make(map[string]bool, len(state.LoadedFiles))
			for _, f := range state.LoadedFiles {
				existing[f.Path] = true
			}

			added := 0
			for _, item := range files {
				file := parseLoadedFile(item)
				if file.Path == "" || existing[file.Path] {
					continue
				}
				existing[file.Path] = true
				state.LoadedFiles = append(state.LoadedFiles, file)
				added++
			}

			if err := saveProject(ctx, db, state); err != nil {
				return nil, err
			}
			return fmt.Sprintf("Added %d file(s) to loaded files for project '%s'.", added, projectID), nil
		},
	}
}

// ListLoadedFiles returns the files recorded as loaded for a project.
func ListLoadedFiles(db *store.DB) Tool {
	return Tool{
		Name: "list_loaded_files",
		Description: "Get the list of files loaded into vectorstore for a project. " +
			"Use this to check which files are already in the RAG system " +
			"before loading new files incrementally.",
		Parameters: schema.Object().
			Prop("project_id", schema.String().Desc("The ID of the project.")).
			Required("project_id").
			MustBuild(),
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			projectID := argString(args, "project_id", "")
			if projectID == "" {
				return "Error: project_id is required.", nil
			}
			state, err := loadProject(ctx, db, projectID)
			if err != nil {
				return nil, err
			}
			if state == nil {
				return fmt.Sprintf("Error: Project '%s' not found.", projectID), nil
			}
			return map[string]any{"loaded_files": state.LoadedFiles}, nil
		},
	}
}

func parseLoadedFile(item any) LoadedFile {
	switch v := item.(type) {
	case string:
		return LoadedFile{Path: v, Status: "loaded"}
	case map[string]any:
		file := LoadedFile{
			Path:        argString(v, "path", ""),
			Status:      argString(v, "status", "loaded"),
			ChunksCount: argInt(v, "chunks_count", 0),
		}
		return file
	}
	return LoadedFile{}
}

func argStrings(args map[string]any, key string) []string {
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
