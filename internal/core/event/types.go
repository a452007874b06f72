package event

// SceneLoaded is emitted once a scene's actors have been staged.
type SceneLoaded struct {
	Name   string
	Actors int
	Frame  int
}

// QuitRequested is emitted when a script asks the application to quit.
type QuitRequested struct {
	Frame int
}
