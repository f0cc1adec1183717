/*
 * Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package codes

// Error codes for the Cookie Consent Service
const (
	// General errors
	InternalServerError = "CCS-5000"
	InvalidRequest      = "CCS-4000"
	ResourceNotFound    = "CCS-4004"
	ConflictError       = "CCS-4009"

	// Session-specific errors
	SessionNotFound     = "CCS-4040"
	PreferencesNotFound = "CCS-4041"

	// Banner-specific errors
	InvalidTransition = "CCS-4090"
	BannerDisabled    = "CCS-4091"
)
