package api

// User is the authenticated runner's profile.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Message is one entry of the coach conversation as the backend represents
// it. IDs of user messages created locally are client timestamps; AI replies
// carry server-assigned ids.
type Message struct {
	ID            int64  `json:"id"`
	Content       string `json:"content"`
	IsUserMessage bool   `json:"isUserMessage"`
	CreatedAt     string `json:"createdAt"`
}

// Workout is a scheduled training session.
type Workout struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	ScheduledFor string `json:"scheduledFor"`
	IsComplete   bool   `json:"isComplete"`
}

// TrainingPlan is the runner's current plan.
type TrainingPlan struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Goal        string `json:"goal"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	WeeklyMiles int    `json:"weeklyMiles"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type messagesResponse struct {
	Messages []Message `json:"messages"`
}

type sendMessageResponse struct {
	Message   *Message `json:"message"`
	AIMessage *Message `json:"aiMessage"`
}

type workoutsResponse struct {
	Workouts []Workout `json:"workouts"`
}

type trainingPlanResponse struct {
	TrainingPlan *TrainingPlan `json:"trainingPlan"`
}

type workoutResponse struct {
	Workout *Workout `json:"workout"`
}

type registerResponse struct {
	User User `json:"user"`
}
