package domain

import "errors"

var (
	ErrNotFound        = errors.New("intervention not found")
	ErrDeleted         = errors.New("intervention deleted")
	ErrAlreadyExists   = errors.New("intervention already exists")
	ErrUnavailable     = errors.New("collaborator unavailable")
	ErrInvalidResponse = errors.New("invalid language model response")
)

// User-facing messages. Technicians write in French, so do we.
const (
	MsgEmptyMessage          = "Message vide"
	MsgMediaWithoutReference = "Image reçue sans référence d'intervention"
	MsgUnrecognizedMessage   = "Message non reconnu"
	MsgUnknownError          = "Erreur inconnue"

	MsgAssistantUnavailable = "Service IA non disponible. Reformulez votre message."
	MsgInvalidAIResponse    = "Réponse IA invalide"
	MsgUnrecognizedAction   = "Action IA non reconnue"
	MsgAIServiceError       = "Erreur du service IA"

	MsgStorageUnavailable  = "Base de données non configurée"
	MsgStorageBusy         = "Base de données temporairement indisponible. Réessayez dans un instant."
	MsgImagesUnavailable   = "Stockage d'images non configuré"
	MsgExecutionFailed     = "Erreur lors de l'exécution de l'action"
	MsgTypeAndReference    = "Type et référence requis"
	MsgReferenceRequired   = "Référence requise"
	MsgCommentRequired     = "Commentaire requis"
	MsgNothingToCreate     = "Aucune intervention à créer"
	MsgNothingToUpdate     = "Aucun champ à modifier"
	MsgUnsupportedField    = "Champ non modifiable"
	MsgInvalidDate         = "Date invalide"
	MsgInvalidScope        = "Période de liste inconnue"
	MsgNoMediaAttached     = "Aucune image jointe au message"
	MsgMediaDownloadFailed = "Impossible de télécharger l'image"
	MsgMediaUploadFailed   = "Impossible d'enregistrer l'image"
)
