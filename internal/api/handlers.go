package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"riff.app/backend/internal/core"
)

// recentNodesLimit is the number of nodes returned by the connectivity probe.
const recentNodesLimit = 5

type APIHandler struct {
	models  *core.ModelService
	flavors *core.FlavorService
	nodes   *core.NodeService
	chat    core.ChatDeps
}

func NewAPIHandler(models *core.ModelService, flavors *core.FlavorService, nodes *core.NodeService, chat core.ChatDeps) *APIHandler {
	return &APIHandler{models: models, flavors: flavors, nodes: nodes, chat: chat}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "RIFF Backend is running"})
}

// TestStoreHandler checks store connectivity by reading the caller's most
// recent nodes.
func (h *APIHandler) TestStoreHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	nodes, err := h.nodes.Recent(r.Context(), user.ID, recentNodesLimit)
	if err != nil {
		slog.ErrorContext(r.Context(), "store connectivity check failed", "user_id", user.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "message": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "Successfully connected to Supabase",
		"data":    nodes,
	})
}

func (h *APIHandler) ListModelsHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	models, err := h.models.List(r.Context(), user.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "error listing models", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, models)
}

type AddModelRequest struct {
	ModelName string `json:"model_name"`
	APIKey    string `json:"api_key"`
}

func (h *APIHandler) AddModelHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	var req AddModelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.ModelName == "" || req.APIKey == "" {
		writeError(w, http.StatusBadRequest, "model_name and api_key are required")
		return
	}

	model, err := h.models.Add(r.Context(), user.ID, req.ModelName, req.APIKey)
	if err != nil {
		slog.ErrorContext(r.Context(), "error adding model", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, model)
}

func (h *APIHandler) DeleteModelHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	modelID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid model id")
		return
	}

	if err := h.models.Delete(r.Context(), user.ID, modelID); err != nil {
		if errors.Is(err, core.ErrModelNotFound) {
			writeError(w, http.StatusNotFound, "Model not found")
			return
		}
		slog.ErrorContext(r.Context(), "error deleting model", "user_id", user.ID, "model_id", modelID, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) ListFlavorsHandler(w http.ResponseWriter, r *http.Request) {
	flavors, err := h.flavors.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "error listing flavors", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, flavors)
}

func (h *APIHandler) ListNodesHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	nodes, err := h.nodes.List(r.Context(), user.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "error listing nodes", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, nodes)
}

type CreateNodeRequest struct {
	Title  string `json:"title"`
	Model  string `json:"model,omitempty"`
	Flavor string `json:"flavor,omitempty"`
}

func (h *APIHandler) CreateNodeHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	var req CreateNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	node, err := h.nodes.Create(r.Context(), user.ID, req.Title, req.Model, req.Flavor)
	if err != nil {
		slog.ErrorContext(r.Context(), "error creating node", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, node)
}

func (h *APIHandler) DeleteNodeHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	nodeID, err := pathID(r, "nodeId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid node id")
		return
	}

	if err := h.nodes.Delete(r.Context(), user.ID, nodeID); err != nil {
		if errors.Is(err, core.ErrNodeNotFound) {
			writeError(w, http.StatusNotFound, "Node not found")
			return
		}
		slog.ErrorContext(r.Context(), "error deleting node", "user_id", user.ID, "node_id", nodeID, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) NodeMessagesHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	nodeID, err := pathID(r, "nodeId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid node id")
		return
	}

	messages, err := h.nodes.Messages(r.Context(), user.ID, nodeID)
	if err != nil {
		if errors.Is(err, core.ErrNodeNotFound) {
			writeError(w, http.StatusNotFound, "Node not found")
			return
		}
		slog.ErrorContext(r.Context(), "error loading node history", "user_id", user.ID, "node_id", nodeID, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

type ChatRequest struct {
	Message string `json:"message"`
	// ModelName overrides the model configured on the node.
	ModelName string `json:"model_name,omitempty"`
}

type ChatResponse struct {
	Response string `json:"response"`
}

// ChatHandler runs one chat turn on a node. The node, its model and the
// caller's credential for that model are all resolved before the chat
// service is built.
func (h *APIHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := UserFromContext(ctx)

	nodeID, err := pathID(r, "nodeId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid node id")
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	node, err := h.nodes.Get(ctx, user.ID, nodeID)
	if err != nil {
		if errors.Is(err, core.ErrNodeNotFound) {
			writeError(w, http.StatusNotFound, "Node not found")
			return
		}
		slog.ErrorContext(ctx, "error loading node", "user_id", user.ID, "node_id", nodeID, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	modelName := req.ModelName
	if modelName == "" && node.Model != nil {
		modelName = *node.Model
	}
	if modelName == "" {
		writeError(w, http.StatusBadRequest, "Node has no model configured")
		return
	}

	modelConfig, err := h.models.FindByName(ctx, user.ID, modelName)
	if err != nil {
		slog.ErrorContext(ctx, "error resolving model", "user_id", user.ID, "model", modelName, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if modelConfig == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Model %s not found for user", modelName))
		return
	}

	cfg := core.ChatConfig{
		NodeID:    nodeID,
		UserID:    user.ID,
		ModelName: modelName,
		APIKey:    modelConfig.APIKey,
	}
	if node.Flavor != nil {
		cfg.Flavor = *node.Flavor
	}

	chatService, err := core.NewChatService(ctx, h.chat, cfg)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	reply, err := chatService.ProcessMessage(ctx, req.Message)
	if err != nil {
		slog.ErrorContext(ctx, "chat turn failed", "user_id", user.ID, "node_id", nodeID, "model", modelName, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ChatResponse{Response: reply})
}
