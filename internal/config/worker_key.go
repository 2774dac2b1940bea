package config

type WorkerKeyStruct struct {
	PersistViolationsQueue string
	PersistScoresQueue     string
	PersistChatsQueue      string
}

var WorkerKey = &WorkerKeyStruct{
	PersistViolationsQueue: "persist_violations_queue",
	PersistScoresQueue:     "persist_scores_queue",
	PersistChatsQueue:      "persist_chats_queue",
}
